package bridge

import (
	"fmt"
	"sync"

	"k8s.io/klog/v2"
)

// Transport is a bidirectional message channel to the remote game.
//
// Start connects the transport. onConnect is called on the transport's
// own goroutine every time a connection (or reconnection) is ready to
// deliver messages, and onMessage is called on the transport's delivery
// goroutine for every inbound payload, one payload at a time.
type Transport interface {
	Start(onConnect func(), onMessage func([]byte)) error
	Publish(payload []byte) error
	Close() error
}

// Loopback is one end of an in-process Transport pair. Payloads
// published on one end are delivered, in order, to the other end's
// message handler on that end's delivery goroutine.
type Loopback struct {
	name  string
	peer  *Loopback
	inbox chan []byte

	mu      sync.Mutex
	started bool
	closed  bool
	done    chan struct{}
}

// NewLoopbackPair returns two connected Loopback transports
func NewLoopbackPair() (*Loopback, *Loopback) {
	a := &Loopback{name: "a", inbox: make(chan []byte, 64),
		done: make(chan struct{})}
	b := &Loopback{name: "b", inbox: make(chan []byte, 64),
		done: make(chan struct{})}
	a.peer, b.peer = b, a
	return a, b
}

// Start starts the delivery goroutine and reports the connection
func (l *Loopback) Start(onConnect func(), onMessage func([]byte)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("start: %w", ErrClosed)
	}
	if l.started {
		return fmt.Errorf("start: loopback %v already started", l.name)
	}
	l.started = true

	go func() {
		if onConnect != nil {
			onConnect()
		}
		for {
			select {
			case payload := <-l.inbox:
				onMessage(payload)
			case <-l.done:
				return
			}
		}
	}()
	return nil
}

// Publish delivers a copy of payload to the peer
func (l *Loopback) Publish(payload []byte) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return fmt.Errorf("publish: %w", ErrClosed)
	}

	msg := append([]byte(nil), payload...)
	select {
	case l.peer.inbox <- msg:
		klog.V(4).InfoS("Loopback delivered payload", "from", l.name,
			"bytes", len(msg))
		return nil
	case <-l.peer.done:
		return fmt.Errorf("publish: peer %w", ErrClosed)
	}
}

// Close stops the delivery goroutine. Payloads still queued are
// dropped.
func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	close(l.done)
	return nil
}
