// Package transport defines the boundary to the messaging layer that
// delivers sensor frames and calibration metadata and carries exported
// point clouds.
//
// Delivery is poll-driven: subscriptions buffer incoming payloads and
// handlers fire only from ServiceOnce, so all callback execution
// happens on whichever goroutine is servicing the transport. The
// per-stream pending buffers keep only the most recent deliveries;
// older ones are dropped, consistent with the bridge's freshest-wins
// policy.
package transport

import "errors"

var (
	// ErrClosed reports use of a transport after Close.
	ErrClosed = errors.New("transport closed")

	// ErrDuplicateHandler reports a second registration for a stream or
	// request name.
	ErrDuplicateHandler = errors.New("handler already registered")
)

// Handler consumes one delivered payload. The payload is only valid
// for the duration of the call; handlers copy what they keep.
type Handler func(payload []byte)

// RequestHandler serves a synchronous request/response endpoint. The
// returned payload is published as the response.
type RequestHandler func() ([]byte, error)

// Transport is the messaging boundary used by the bridge.
type Transport interface {
	// Subscribe registers a handler for a named stream. Deliveries are
	// buffered and dispatched from ServiceOnce.
	Subscribe(stream string, h Handler) error

	// ServiceOnce performs one non-blocking dispatch of pending
	// deliveries and pending requests. Safe to call at frame rate.
	ServiceOnce()

	// RegisterRequestHandler exposes a request/response endpoint under
	// the given name. Requests are served during ServiceOnce.
	RegisterRequestHandler(name string, h RequestHandler) error

	// Publish emits a payload on a named stream.
	Publish(stream string, payload []byte) error

	Close() error
}

// pendingCap bounds each stream's pending-delivery buffer. When it
// overflows the oldest payload is discarded.
const pendingCap = 4

// pendingQueue is a small FIFO with drop-oldest overflow, used per
// subscribed stream.
type pendingQueue struct {
	items   [][]byte
	dropped uint64
}

func (q *pendingQueue) push(payload []byte) {
	if len(q.items) >= pendingCap {
		copy(q.items, q.items[1:])
		q.items = q.items[:len(q.items)-1]
		q.dropped++
	}
	// Own the bytes: transport implementations may reuse the delivery
	// buffer after the callback returns.
	cp := make([]byte, len(payload))
	copy(cp, payload)
	q.items = append(q.items, cp)
}

func (q *pendingQueue) drain(h Handler) int {
	n := len(q.items)
	for _, p := range q.items {
		h(p)
	}
	q.items = q.items[:0]
	return n
}
