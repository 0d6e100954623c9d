package lander

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/samuelfneumann/lunarlearn/environment/bridge"
	"k8s.io/klog/v2"
)

// Server answers bridge requests by driving a Game, standing in for the
// phone on the other side of a transport
type Server struct {
	game     *Game
	protocol bridge.Protocol

	requests atomic.Int64
}

// NewServer returns a new Server for game speaking protocol
func NewServer(game *Game, protocol bridge.Protocol) (*Server, error) {
	if err := protocol.Validate(); err != nil {
		return nil, fmt.Errorf("newserver: %v", err)
	}
	return &Server{game: game, protocol: protocol}, nil
}

// Handle decodes a request, applies it to the game and returns the
// encoded reply
func (s *Server) Handle(payload []byte) ([]byte, error) {
	req, err := s.protocol.DecodeRequest(payload)
	if err != nil {
		return nil, fmt.Errorf("handle: %w", err)
	}
	s.requests.Add(1)

	var reply bridge.Reply
	if s.protocol.IsReset(req) {
		reply = bridge.Reply{State: s.game.Reset()}
	} else {
		reply = s.game.Step(*req.Action)
	}

	if reply.Done {
		klog.V(1).InfoS("Game over", "mode", s.game.Mode(), "fuel",
			s.game.Fuel(), "speed", s.game.Speed())
	}
	return s.protocol.EncodeReply(reply)
}

// Serve starts transport and answers every request it delivers until
// ctx is done, then closes the transport. Malformed requests are logged
// and left unanswered.
func (s *Server) Serve(ctx context.Context, transport bridge.Transport) error {
	onConnect := func() {
		klog.InfoS("Lander server ready")
	}
	onMessage := func(payload []byte) {
		reply, err := s.Handle(payload)
		if err != nil {
			klog.ErrorS(err, "Dropping request")
			return
		}
		if err := transport.Publish(reply); err != nil {
			klog.ErrorS(err, "Could not publish reply")
		}
	}

	if err := transport.Start(onConnect, onMessage); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	<-ctx.Done()
	klog.InfoS("Lander server stopping", "requests", s.requests.Load())
	return transport.Close()
}
