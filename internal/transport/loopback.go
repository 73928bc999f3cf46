package transport

import (
	"fmt"
	"sync"

	"github.com/densemap/framebridge/internal/monitoring"
)

// Loopback is an in-memory Transport for tests and dev mode. Publish
// enqueues into subscriber pending buffers; deliveries and request
// dispatch happen only on ServiceOnce, matching the poll-driven
// contract of the real transports.
type Loopback struct {
	mu        sync.Mutex
	closed    bool
	subs      map[string]*loopbackSub
	reqs      map[string]RequestHandler
	pendingRq []string
	published map[string][][]byte // streams with no subscriber, kept for inspection
}

type loopbackSub struct {
	handler Handler
	queue   pendingQueue
}

// NewLoopback returns an empty in-memory transport.
func NewLoopback() *Loopback {
	return &Loopback{
		subs:      make(map[string]*loopbackSub),
		reqs:      make(map[string]RequestHandler),
		published: make(map[string][][]byte),
	}
}

func (l *Loopback) Subscribe(stream string, h Handler) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if _, ok := l.subs[stream]; ok {
		return fmt.Errorf("%w: stream %q", ErrDuplicateHandler, stream)
	}
	l.subs[stream] = &loopbackSub{handler: h}
	return nil
}

func (l *Loopback) RegisterRequestHandler(name string, h RequestHandler) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if _, ok := l.reqs[name]; ok {
		return fmt.Errorf("%w: request %q", ErrDuplicateHandler, name)
	}
	l.reqs[name] = h
	return nil
}

func (l *Loopback) Publish(stream string, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if sub, ok := l.subs[stream]; ok {
		sub.queue.push(payload)
		return nil
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	l.published[stream] = append(l.published[stream], cp)
	return nil
}

// Request enqueues a request for a registered endpoint; the handler
// runs on the next ServiceOnce and its response is published on
// "<name>/response".
func (l *Loopback) Request(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if _, ok := l.reqs[name]; !ok {
		return fmt.Errorf("no request handler %q", name)
	}
	l.pendingRq = append(l.pendingRq, name)
	return nil
}

// ServiceOnce dispatches all pending deliveries and requests.
// Handlers run without the transport lock held, so they may publish
// or request in turn.
func (l *Loopback) ServiceOnce() {
	type dispatch struct {
		handler Handler
		payload []byte
	}
	var work []dispatch
	var requests []string

	l.mu.Lock()
	for _, sub := range l.subs {
		h := sub.handler
		sub.queue.drain(func(p []byte) {
			work = append(work, dispatch{handler: h, payload: p})
		})
	}
	requests, l.pendingRq = l.pendingRq, nil
	l.mu.Unlock()

	for _, d := range work {
		d.handler(d.payload)
	}
	for _, name := range requests {
		l.serveRequest(name)
	}
}

func (l *Loopback) serveRequest(name string) {
	l.mu.Lock()
	h := l.reqs[name]
	l.mu.Unlock()
	if h == nil {
		return
	}
	resp, err := h()
	if err != nil {
		monitoring.Logf("loopback: request %q failed: %v", name, err)
		return
	}
	if err := l.Publish(name+"/response", resp); err != nil {
		monitoring.Logf("loopback: publish %q response: %v", name, err)
	}
}

// Published returns payloads published to a stream that had no
// subscriber, in publication order. Test helper.
func (l *Loopback) Published(stream string) [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.published[stream]))
	copy(out, l.published[stream])
	return out
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
