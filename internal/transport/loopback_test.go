package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoopbackDeliversOnlyOnService(t *testing.T) {
	l := NewLoopback()
	var got [][]byte
	require.NoError(t, l.Subscribe("camera/depth", func(p []byte) {
		cp := make([]byte, len(p))
		copy(cp, p)
		got = append(got, cp)
	}))

	require.NoError(t, l.Publish("camera/depth", []byte{1}))
	require.NoError(t, l.Publish("camera/depth", []byte{2}))
	require.Empty(t, got, "payloads delivered before ServiceOnce")

	l.ServiceOnce()
	require.Equal(t, [][]byte{{1}, {2}}, got)

	l.ServiceOnce()
	require.Len(t, got, 2, "redelivery on idle service tick")
}

func TestLoopbackPendingOverflowDropsOldest(t *testing.T) {
	l := NewLoopback()
	var got []byte
	require.NoError(t, l.Subscribe("s", func(p []byte) { got = append(got, p[0]) }))

	for i := byte(0); i < pendingCap+3; i++ {
		require.NoError(t, l.Publish("s", []byte{i}))
	}
	l.ServiceOnce()

	require.Len(t, got, pendingCap)
	require.Equal(t, byte(3), got[0], "oldest payloads should have been dropped")
}

func TestLoopbackRequestResponse(t *testing.T) {
	l := NewLoopback()
	served := 0
	require.NoError(t, l.RegisterRequestHandler("publish_scene", func() ([]byte, error) {
		served++
		return []byte("cloud"), nil
	}))

	require.NoError(t, l.Request("publish_scene"))
	require.Zero(t, served, "request served before ServiceOnce")

	l.ServiceOnce()
	require.Equal(t, 1, served)
	resp := l.Published("publish_scene/response")
	require.Len(t, resp, 1)
	require.Equal(t, []byte("cloud"), resp[0])

	require.Error(t, l.Request("unknown"))
}

func TestLoopbackRequestFailureSuppressesResponse(t *testing.T) {
	l := NewLoopback()
	require.NoError(t, l.RegisterRequestHandler("publish_scene", func() ([]byte, error) {
		return nil, errors.New("engine not initialized")
	}))
	require.NoError(t, l.Request("publish_scene"))
	l.ServiceOnce()
	require.Empty(t, l.Published("publish_scene/response"))
}

func TestLoopbackDuplicateAndClosed(t *testing.T) {
	l := NewLoopback()
	require.NoError(t, l.Subscribe("s", func([]byte) {}))
	require.ErrorIs(t, l.Subscribe("s", func([]byte) {}), ErrDuplicateHandler)

	require.NoError(t, l.Close())
	require.ErrorIs(t, l.Publish("s", nil), ErrClosed)
	require.ErrorIs(t, l.Subscribe("x", func([]byte) {}), ErrClosed)
}
