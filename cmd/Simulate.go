package cmd

import (
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/samuelfneumann/lunarlearn/environment/bridge"
	"github.com/samuelfneumann/lunarlearn/environment/lander"
)

// SimulateCommand serves the lunar lander simulator over MQTT, taking
// the place of the phone
func SimulateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Serve the lunar lander simulator over MQTT",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			defer serveMetrics(c.Metrics.Addr)()

			game, err := lander.New(c.Transport.Simulator, c.Seed)
			if err != nil {
				return err
			}
			server, err := lander.NewServer(game, c.Protocol)
			if err != nil {
				return err
			}

			mqttConfig := c.Transport.MQTT.Game()
			transport, err := bridge.NewMQTT(mqttConfig)
			if err != nil {
				return err
			}

			klog.InfoS("Serving lander", "broker", mqttConfig.Broker,
				"subscribe", mqttConfig.SubscribeTopic,
				"publish", mqttConfig.PublishTopic)
			return server.Serve(ctx, transport)
		},
	}
}
