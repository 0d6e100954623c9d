// Package bridge implements a synchronous environment over an
// asynchronous message transport to a remote lunar lander game. Every
// Reset or Step publishes one request and blocks until one reply has
// been received.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samuelfneumann/lunarlearn/environment"
	ts "github.com/samuelfneumann/lunarlearn/timestep"
	"k8s.io/klog/v2"
)

// DefaultCodes are the remote key codes of the four lander actions:
// nothing, fire, rotate left and rotate right
var DefaultCodes = []int{0, 62, 21, 22}

// Config configures a Bridge
type Config struct {
	Protocol Protocol

	// Codes maps each action to the key code sent to the game. The
	// number of actions is len(Codes).
	Codes []int

	// ReplyTimeout bounds the wait for each reply. Zero waits for as
	// long as the caller's context allows.
	ReplyTimeout time.Duration
}

// DefaultConfig returns a Config speaking the default protocol with the
// default action codes and no reply timeout
func DefaultConfig() Config {
	return Config{
		Protocol: DefaultProtocol(),
		Codes:    append([]int(nil), DefaultCodes...),
	}
}

// Validate checks the Config
func (c Config) Validate() error {
	if err := c.Protocol.Validate(); err != nil {
		return fmt.Errorf("invalid protocol: %v", err)
	}
	if len(c.Codes) == 0 {
		return fmt.Errorf("must have at least one action code")
	}
	if c.ReplyTimeout < 0 {
		return fmt.Errorf("reply timeout cannot be negative")
	}
	return nil
}

type result struct {
	reply Reply
	err   error
}

// Bridge implements environment.Environment over a Transport.
//
// The transport's delivery goroutine writes replies into a single-slot
// mailbox that the calling goroutine reads. While a request is pending,
// a newer reply replaces an unconsumed older one. Replies arriving with
// no request pending are discarded. A request abandoned before its reply
// arrived is owed one reply, which is discarded whenever it comes.
type Bridge struct {
	transport Transport
	config    Config

	connectOnce sync.Once
	connected   chan struct{}
	closeOnce   sync.Once
	closed      chan struct{}

	mailbox chan result

	// mu guards pending, outstanding and writes to the mailbox
	mu      sync.Mutex
	pending bool

	// outstanding counts replies still due to abandoned requests
	outstanding int

	steps int
}

// New returns a new Bridge over transport. The transport is not started
// until Connect is called.
func New(transport Transport, c Config) (*Bridge, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	return &Bridge{
		transport: transport,
		config:    c,
		connected: make(chan struct{}),
		closed:    make(chan struct{}),
		mailbox:   make(chan result, 1),
	}, nil
}

// Connect starts the transport and blocks until it reports that it is
// connected or ctx ends. Connect sends nothing to the game.
func (b *Bridge) Connect(ctx context.Context) error {
	onConnect := func() {
		b.connectOnce.Do(func() { close(b.connected) })
	}
	if err := b.transport.Start(onConnect, b.deliver); err != nil {
		return fmt.Errorf("connect: %w: %v", ErrNotConnected, err)
	}

	select {
	case <-b.connected:
		klog.InfoS("Bridge connected")
		return nil
	case <-b.closed:
		return fmt.Errorf("connect: %w", ErrClosed)
	case <-ctx.Done():
		return fmt.Errorf("connect: %w: %v", ErrNotConnected, ctx.Err())
	}
}

// Close closes the bridge and its transport
func (b *Bridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.closed)
		err = b.transport.Close()
	})
	return err
}

// deliver is the transport's message handler
func (b *Bridge) deliver(payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.outstanding > 0 {
		b.outstanding--
		metricStale.Inc()
		klog.V(2).InfoS("Discarding late reply to abandoned request",
			"bytes", len(payload), "outstanding", b.outstanding)
		return
	}
	if !b.pending {
		metricDiscarded.Inc()
		klog.V(2).InfoS("Discarding reply with no pending request",
			"bytes", len(payload))
		return
	}

	reply, err := b.config.Protocol.DecodeReply(payload)
	r := result{reply: reply, err: err}

	// Last reply wins
	for {
		select {
		case b.mailbox <- r:
			return
		default:
		}
		select {
		case <-b.mailbox:
			metricReplaced.Inc()
			klog.V(2).InfoS("Replacing unconsumed reply")
		default:
		}
	}
}

// begin marks a request as pending
func (b *Bridge) begin() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending {
		return ErrRequestInFlight
	}
	b.pending = true
	return nil
}

// end clears the pending request and drops any reply it did not consume
func (b *Bridge) end() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = false
	select {
	case <-b.mailbox:
	default:
	}
}

// abandon clears a request that stopped waiting after it was
// published. If its reply has not arrived, the next reply belongs to it.
func (b *Bridge) abandon() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = false
	select {
	case <-b.mailbox:
	default:
		b.outstanding++
	}
}

// request publishes payload and waits for exactly one reply
func (b *Bridge) request(ctx context.Context, kind string,
	payload []byte) (Reply, error) {
	select {
	case <-b.closed:
		return Reply{}, ErrClosed
	default:
	}
	select {
	case <-b.connected:
	default:
		return Reply{}, ErrNotConnected
	}

	if err := b.begin(); err != nil {
		return Reply{}, err
	}

	if b.config.ReplyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.ReplyTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := b.transport.Publish(payload); err != nil {
		b.end()
		return Reply{}, err
	}
	klog.V(2).InfoS("Request published", "request", kind)

	select {
	case r := <-b.mailbox:
		b.end()
		metricRoundTrip.WithLabelValues(kind).Observe(
			time.Since(start).Seconds())
		return r.reply, r.err
	case <-b.closed:
		b.abandon()
		return Reply{}, ErrClosed
	case <-ctx.Done():
		b.abandon()
		return Reply{}, ctx.Err()
	}
}

// Reset resets the remote game and returns the first step of the new
// episode
func (b *Bridge) Reset(ctx context.Context) (ts.TimeStep, error) {
	payload, err := b.config.Protocol.EncodeReset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	reply, err := b.request(ctx, "reset", payload)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	b.steps = 0
	return ts.New(ts.First, 0, reply.State.Vector(), 0), nil
}

// Step sends the key code of action to the remote game and returns the
// resulting step and whether the episode is done
func (b *Bridge) Step(ctx context.Context, action int) (ts.TimeStep, bool,
	error) {
	if action < 0 || action >= len(b.config.Codes) {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w: %v not in [0, %v)",
			ErrInvalidAction, action, len(b.config.Codes))
	}

	payload, err := b.config.Protocol.EncodeStep(b.config.Codes[action])
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %v", err)
	}

	reply, err := b.request(ctx, "step", payload)
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}

	b.steps++
	stepType := ts.Mid
	if reply.Done {
		stepType = ts.Last
	}
	step := ts.New(stepType, reply.Reward, reply.State.Vector(), b.steps)
	return step, reply.Done, nil
}

// ObservationSpec returns the observation specification of the game
func (b *Bridge) ObservationSpec() environment.Spec {
	return environment.NewUnboundedSpec(Features)
}

// ActionSpec returns the action specification of the game
func (b *Bridge) ActionSpec() environment.Spec {
	return environment.NewActionSpec(len(b.config.Codes))
}
