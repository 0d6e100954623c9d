package bridge

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoopbackPair(t *testing.T) {
	client, server := NewLoopbackPair()
	p := DefaultProtocol()

	// Echo server answering every request with a fixed state
	err := server.Start(nil, func(payload []byte) {
		req, err := p.DecodeRequest(payload)
		if err != nil {
			t.Errorf("server: %v", err)
			return
		}
		reward := 0.0
		if !p.IsReset(req) {
			reward = float64(*req.Action)
		}
		reply, _ := p.EncodeReply(Reply{State: State{X: 7}, Reward: reward})
		server.Publish(reply)
	})
	if err != nil {
		t.Fatal(err)
	}

	b, err := New(client, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.Connect(ctx); err != nil {
		t.Fatal(err)
	}

	first, err := b.Reset(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !first.First() || first.Observation.AtVec(0) != 7 {
		t.Errorf("reset: have %v", first)
	}

	for action, code := range DefaultCodes {
		step, done, err := b.Step(ctx, action)
		if err != nil {
			t.Fatal(err)
		}
		if done || step.Reward != float64(code) || step.Number != action+1 {
			t.Errorf("step %v: have reward(%v) number(%v) done(%v)", action,
				step.Reward, step.Number, done)
		}
	}

	b.Close()
	if _, err := b.Reset(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("reset after close: want ErrClosed have %v", err)
	}
	server.Close()
}
