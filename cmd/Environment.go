package cmd

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/samuelfneumann/lunarlearn/config"
	"github.com/samuelfneumann/lunarlearn/environment"
	"github.com/samuelfneumann/lunarlearn/environment/bridge"
	"github.com/samuelfneumann/lunarlearn/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/lunarlearn/environment/lander"
)

// newEnvironment creates the environment described by c. The returned
// function releases the environment.
func newEnvironment(ctx context.Context, c config.Config) (
	environment.Environment, func(), error) {
	if c.Variant == config.Cartpole {
		return cartpole.New(c.Seed, cartpole.DefaultEpisodeSteps), func() {},
			nil
	}

	var transport bridge.Transport
	stop := func() {}

	switch c.Transport.Kind {
	case config.MQTT:
		mqtt, err := bridge.NewMQTT(c.Transport.MQTT)
		if err != nil {
			return nil, nil, fmt.Errorf("newEnvironment: %w", err)
		}
		transport = mqtt

	case config.Simulator:
		game, err := lander.New(c.Transport.Simulator, c.Seed)
		if err != nil {
			return nil, nil, fmt.Errorf("newEnvironment: %w", err)
		}
		server, err := lander.NewServer(game, c.Protocol)
		if err != nil {
			return nil, nil, fmt.Errorf("newEnvironment: %w", err)
		}

		client, serverSide := bridge.NewLoopbackPair()
		serveCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := server.Serve(serveCtx, serverSide); err != nil {
				klog.ErrorS(err, "Simulator stopped")
			}
		}()
		transport = client
		stop = func() {
			cancel()
			<-done
		}

	default:
		return nil, nil, fmt.Errorf("newEnvironment: no such transport %q",
			c.Transport.Kind)
	}

	b, err := bridge.New(transport, c.Bridge())
	if err != nil {
		stop()
		return nil, nil, fmt.Errorf("newEnvironment: %w", err)
	}

	klog.InfoS("Connecting to game", "transport", c.Transport.Kind,
		"broker", c.Transport.MQTT.Broker)
	if err := b.Connect(ctx); err != nil {
		b.Close()
		stop()
		return nil, nil, fmt.Errorf("newEnvironment: %w", err)
	}

	return b, func() {
		if err := b.Close(); err != nil {
			klog.ErrorS(err, "Could not close bridge")
		}
		stop()
	}, nil
}
