package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockTransport records published payloads and lets the test deliver
// replies on a separate goroutine, as a real transport would
type mockTransport struct {
	mu        sync.Mutex
	published [][]byte
	onMessage func([]byte)

	publishedCh chan []byte
	publishErr  error
	connect     bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{publishedCh: make(chan []byte, 16), connect: true}
}

func (m *mockTransport) Start(onConnect func(), onMessage func([]byte)) error {
	m.mu.Lock()
	m.onMessage = onMessage
	m.mu.Unlock()
	if m.connect {
		go onConnect()
	}
	return nil
}

func (m *mockTransport) Publish(payload []byte) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.mu.Lock()
	m.published = append(m.published, payload)
	m.mu.Unlock()
	m.publishedCh <- payload
	return nil
}

func (m *mockTransport) Close() error { return nil }

func (m *mockTransport) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

// reply delivers a payload synchronously from a new goroutine
func (m *mockTransport) reply(payload string) {
	done := make(chan struct{})
	go func() {
		m.onMessage([]byte(payload))
		close(done)
	}()
	<-done
}

const (
	replyA = `{"state":{"mX":1,"mY":2,"mDX":3,"mDY":4,"mHeading":5,` +
		`"mOnGoal":false},"reward":0,"done":false}`
	replyB = `{"type":"OBSERVATION_RESPONSE","observation":{"mX":10,` +
		`"mY":20,"mDX":30,"mDY":40,"mHeading":50,"mOnGoal":true,` +
		`"mFuel":12},"reward":1,"done":true}`
)

func connected(t *testing.T, c Config) (*Bridge, *mockTransport) {
	transport := newMockTransport()
	b, err := New(transport, c)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	return b, transport
}

// respond answers the next published request with payload
func respond(t *testing.T, m *mockTransport, payload string) []byte {
	select {
	case req := <-m.publishedCh:
		m.reply(payload)
		return req
	case <-time.After(time.Second):
		t.Error("no request published")
	}
	return nil
}

func TestResetBlocksForReply(t *testing.T) {
	b, transport := connected(t, DefaultConfig())

	type out struct {
		values []float64
		err    error
	}
	results := make(chan out, 1)
	go func() {
		step, err := b.Reset(context.Background())
		if err != nil {
			results <- out{err: err}
			return
		}
		results <- out{values: step.Observation.RawVector().Data}
	}()

	req := <-transport.publishedCh
	if string(req) != `{"type":"reset"}` {
		t.Errorf("reset request: have %s", req)
	}

	select {
	case <-results:
		t.Fatal("reset returned before a reply was delivered")
	case <-time.After(20 * time.Millisecond):
	}

	transport.reply(replyA)
	r := <-results
	if r.err != nil {
		t.Fatal(r.err)
	}
	want := []float64{1, 2, 3, 4, 5, 0}
	for i := range want {
		if r.values[i] != want[i] {
			t.Errorf("observation[%v]: want(%v) have(%v)", i, want[i],
				r.values[i])
		}
	}
}

func TestStepMapsActionAndDecodesReply(t *testing.T) {
	b, transport := connected(t, DefaultConfig())

	go func() { respond(t, transport, replyB) }()
	step, done, err := b.Step(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}

	var req Request
	if err := json.Unmarshal(transport.published[0], &req); err != nil {
		t.Fatal(err)
	}
	if req.Type != "step" || req.Action == nil || *req.Action != 62 {
		t.Errorf("step request: have %s", transport.published[0])
	}

	if !done || !step.Last() || step.Reward != 1 {
		t.Errorf("step: want done last reward 1, have done(%v) %v reward(%v)",
			done, step.StepType, step.Reward)
	}
	want := []float64{10, 20, 30, 40, 50, 1}
	for i, v := range step.Observation.RawVector().Data {
		if v != want[i] {
			t.Errorf("observation[%v]: want(%v) have(%v)", i, want[i], v)
		}
	}
}

func TestInvalidActionPublishesNothing(t *testing.T) {
	b, transport := connected(t, DefaultConfig())

	for _, action := range []int{-1, 4} {
		_, _, err := b.Step(context.Background(), action)
		if !errors.Is(err, ErrInvalidAction) {
			t.Errorf("action %v: want ErrInvalidAction have %v", action, err)
		}
	}
	if transport.count() != 0 {
		t.Errorf("published %v messages for invalid actions", transport.count())
	}
}

func TestConcurrentRequestRejected(t *testing.T) {
	b, transport := connected(t, DefaultConfig())

	results := make(chan error, 1)
	var first []float64
	go func() {
		step, err := b.Reset(context.Background())
		if err == nil {
			first = step.Observation.RawVector().Data
		}
		results <- err
	}()
	<-transport.publishedCh

	_, _, err := b.Step(context.Background(), 0)
	if !errors.Is(err, ErrRequestInFlight) {
		t.Fatalf("second request: want ErrRequestInFlight have %v", err)
	}
	if transport.count() != 1 {
		t.Errorf("rejected request was published: %v messages",
			transport.count())
	}

	transport.reply(replyA)
	if err := <-results; err != nil {
		t.Fatal(err)
	}
	if first[0] != 1 {
		t.Errorf("pending request received wrong reply: %v", first)
	}
}

func TestUnsolicitedReplyDiscarded(t *testing.T) {
	b, transport := connected(t, DefaultConfig())
	transport.reply(replyB)

	go func() { respond(t, transport, replyA) }()
	step, err := b.Reset(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if step.Observation.AtVec(0) != 1 {
		t.Errorf("received unsolicited reply: %v", step.Observation)
	}
}

func TestLastReplyWins(t *testing.T) {
	b, _ := connected(t, DefaultConfig())

	b.begin()
	b.deliver([]byte(replyA))
	b.deliver([]byte(replyB))

	r := <-b.mailbox
	if r.err != nil || r.reply.State.X != 10 {
		t.Errorf("want latest reply, have %+v", r)
	}
	b.end()

	select {
	case r := <-b.mailbox:
		t.Errorf("mailbox not empty: %+v", r)
	default:
	}
}

func TestMalformedReply(t *testing.T) {
	b, transport := connected(t, DefaultConfig())

	go func() { respond(t, transport, `{"state":{"mX":1},"reward":0}`) }()
	_, err := b.Reset(context.Background())
	if !errors.Is(err, ErrMalformedReply) {
		t.Fatalf("want ErrMalformedReply have %v", err)
	}

	// The bridge remains usable
	go func() { respond(t, transport, replyA) }()
	if _, err := b.Reset(context.Background()); err != nil {
		t.Errorf("request after malformed reply: %v", err)
	}
}

func TestReplyTimeout(t *testing.T) {
	c := DefaultConfig()
	c.ReplyTimeout = 20 * time.Millisecond
	b, transport := connected(t, c)

	_, err := b.Reset(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded have %v", err)
	}
	<-transport.publishedCh

	// A late reply to the timed out request is discarded
	transport.reply(replyB)
	go func() { respond(t, transport, replyA) }()
	step, err := b.Reset(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if step.Observation.AtVec(0) != 1 {
		t.Errorf("late reply leaked into next request")
	}
}

func TestRequestBeforeConnect(t *testing.T) {
	transport := newMockTransport()
	transport.connect = false
	b, _ := New(transport, DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(),
		10*time.Millisecond)
	defer cancel()
	if err := b.Connect(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("connect: want ErrNotConnected have %v", err)
	}
	if _, err := b.Reset(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("reset: want ErrNotConnected have %v", err)
	}
}

func TestAndroidDialect(t *testing.T) {
	c := DefaultConfig()
	c.Protocol = AndroidProtocol()
	b, transport := connected(t, c)

	go func() { respond(t, transport, replyB) }()
	if _, err := b.Reset(context.Background()); err != nil {
		t.Fatal(err)
	}
	if string(transport.published[0]) != `{"type":"RESET_REQUEST"}` {
		t.Errorf("reset request: have %s", transport.published[0])
	}
}

func TestLateReplyNotDeliveredToNextRequest(t *testing.T) {
	b, transport := connected(t, DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(),
		20*time.Millisecond)
	defer cancel()
	if _, err := b.Reset(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded have %v", err)
	}
	<-transport.publishedCh

	type stepResult struct {
		obs  float64
		done bool
		err  error
	}
	results := make(chan stepResult, 1)
	go func() {
		step, done, err := b.Step(context.Background(), 1)
		if err != nil {
			results <- stepResult{err: err}
			return
		}
		results <- stepResult{obs: step.Observation.AtVec(0), done: done}
	}()

	// The reset's reply arrives only after the step was published
	select {
	case <-transport.publishedCh:
	case <-time.After(time.Second):
		t.Fatal("step not published")
	}
	transport.reply(replyB)
	transport.reply(replyA)

	select {
	case r := <-results:
		if r.err != nil {
			t.Fatal(r.err)
		}
		if r.obs != 1 || r.done {
			t.Errorf("step: want mX=1 done=false have mX=%v done=%v",
				r.obs, r.done)
		}
	case <-time.After(time.Second):
		t.Fatal("step never returned")
	}

	if b.outstanding != 0 {
		t.Errorf("outstanding: want 0 have %v", b.outstanding)
	}
}

func TestAbandonAfterReplyOwesNothing(t *testing.T) {
	b, _ := connected(t, DefaultConfig())

	if err := b.begin(); err != nil {
		t.Fatal(err)
	}
	b.deliver([]byte(replyA))
	b.abandon()
	if b.outstanding != 0 {
		t.Errorf("outstanding: want 0 have %v", b.outstanding)
	}

	if err := b.begin(); err != nil {
		t.Fatal(err)
	}
	b.abandon()
	if b.outstanding != 1 {
		t.Errorf("outstanding: want 1 have %v", b.outstanding)
	}
}
