// Package config implements the JSON configuration of a training run
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/samuelfneumann/lunarlearn/agent/deepq"
	"github.com/samuelfneumann/lunarlearn/environment/bridge"
	"github.com/samuelfneumann/lunarlearn/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/lunarlearn/environment/lander"
	"github.com/samuelfneumann/lunarlearn/experiment"
	"github.com/samuelfneumann/lunarlearn/expreplay"
	"github.com/samuelfneumann/lunarlearn/network"
	"github.com/samuelfneumann/lunarlearn/schedule"
)

// Variant names the task being learned
type Variant string

const (
	Lunar    Variant = "lunar"
	Cartpole Variant = "cartpole"
)

// Features returns the number of observation features of the variant
func (v Variant) Features() int {
	switch v {
	case Lunar:
		return bridge.Features
	case Cartpole:
		return cartpole.Features
	}
	return 0
}

// TransportKind names the way the lunar lander game is reached
type TransportKind string

const (
	MQTT      TransportKind = "mqtt"
	Simulator TransportKind = "sim"
)

// NetworkType names an action-value function approximator
type NetworkType string

const (
	MLP    NetworkType = "mlp"
	Linear NetworkType = "linear"
)

// Config is the configuration of a training run
type Config struct {
	Variant    Variant
	Seed       uint64
	Transport  Transport
	Protocol   bridge.Protocol
	Actions    Actions
	Tabular    Tabular
	DeepQ      DeepQ
	Training   experiment.Config
	Checkpoint Checkpoint
	Metrics    Metrics
}

// Transport configures how the lunar lander is reached. It is unused
// by the cartpole variant.
type Transport struct {
	Kind         TransportKind
	MQTT         bridge.MQTTConfig
	ReplyTimeout Duration // zero to wait indefinitely
	Simulator    lander.Config
}

// Actions configures the action set. The number of actions is
// len(Codes).
type Actions struct {
	// Codes are the key codes sent to the game for each action
	Codes []int

	// Weights are the relative probabilities of each action being taken
	// when exploring, nil for uniform exploration
	Weights []float64 `json:",omitempty"`
}

// Tabular configures the Q-table learner
type Tabular struct {
	Buckets []int
	Lower   []float64
	Upper   []float64

	LearningRate schedule.Config
	Discount     schedule.Config
	ExploreRate  schedule.Config
}

// Network configures the action-value function of the DeepQ learner
type Network struct {
	Type     NetworkType
	StepSize float64 `json:",omitempty"` // Linear only
	MLP      network.MLPConfig
}

// DeepQ configures the value approximation learner
type DeepQ struct {
	Discount       float64
	Replay         expreplay.Config
	Epsilon        schedule.Config
	Network        Network
	WarmupEpisodes int
}

// Agent returns the deepq.Config described by d with the given
// exploration weights
func (d DeepQ) Agent(weights []float64) deepq.Config {
	return deepq.Config{
		Discount:      d.Discount,
		ExpReplay:     d.Replay,
		ActionWeights: weights,
	}
}

// Checkpoint configures where snapshots are saved. Snapshots are saved
// to redis if RedisAddr is set, else to Dir if it is set, else not at
// all.
type Checkpoint struct {
	Dir         string
	RedisAddr   string
	RedisPrefix string

	// Every is the checkpointing interval in episodes, 0 to checkpoint
	// at every training check
	Every int

	// Restore loads the latest snapshots before training
	Restore bool
}

// Metrics configures the prometheus endpoint
type Metrics struct {
	Addr string // empty to disable
}

// Default returns the default configuration of a variant
func Default(v Variant) (Config, error) {
	switch v {
	case Lunar:
		return defaultLunar(), nil
	case Cartpole:
		return defaultCartpole(), nil
	}
	return Config{}, fmt.Errorf("default: no such variant %q", v)
}

func defaultLunar() Config {
	dqn := deepq.DefaultConfig()
	epsilon, err := schedule.NewLinear(1.0,
		schedule.Phase{Episodes: 2000, Target: 0.1},
		schedule.Phase{Episodes: 3000, Target: 0.01})
	if err != nil {
		panic(fmt.Sprintf("defaultlunar: %v", err))
	}

	return Config{
		Variant: Lunar,
		Seed:    1,
		Transport: Transport{
			Kind:      MQTT,
			MQTT:      bridge.DefaultMQTTConfig(),
			Simulator: lander.DefaultConfig(),
		},
		Protocol: bridge.DefaultProtocol(),
		Actions: Actions{
			Codes: append([]int(nil), bridge.DefaultCodes...),
		},
		Tabular: Tabular{
			// mX, mY, mDX, mDY, mHeading, mOnGoal
			Buckets: []int{6, 6, 4, 6, 8, 2},
			Lower:   []float64{0, 0, -100, -200, 0, 0},
			Upper:   []float64{480, 800, 100, 100, 360, 1},

			LearningRate: schedule.LogDecayConfig(0.05, 1, 250),
			Discount:     schedule.LogDecayConfig(1, 1, 100),
			ExploreRate:  schedule.LogDecayConfig(0, 0.7, 200),
		},
		DeepQ: DeepQ{
			Discount: dqn.Discount,
			Replay:   dqn.ExpReplay,
			Epsilon: schedule.Config{
				Type:    schedule.LinearType,
				Initial: epsilon.Initial,
				Phases:  epsilon.Phases,
			},
			Network: Network{
				Type: MLP,
				MLP:  network.DefaultMLPConfig(),
			},
			WarmupEpisodes: 1000,
		},
		Training: experiment.DefaultConfig(),
		Checkpoint: Checkpoint{
			RedisPrefix: "lunarlearn:",
		},
	}
}

func defaultCartpole() Config {
	c := defaultLunar()
	c.Variant = Cartpole
	c.Actions = Actions{Codes: []int{0, 1}}

	// cart position, cart velocity, pole angle, pole angular velocity
	bounds := cartpole.New(0, 0).ObservationSpec()
	c.Tabular = Tabular{
		Buckets: []int{3, 6, 8, 4},
		Lower:   bounds.LowerBound.RawVector().Data,
		Upper:   bounds.UpperBound.RawVector().Data,

		LearningRate: schedule.LogDecayConfig(0.2, 0.7, 200),
		Discount:     schedule.LogDecayConfig(1, 1, 1),
		ExploreRate:  schedule.LogDecayConfig(0, 0.3, 100),
	}
	c.DeepQ.Network.MLP.HiddenSizes = []int{64, 64}
	c.DeepQ.Network.MLP.Activations = []*network.Activation{network.ReLU(),
		network.ReLU()}
	c.DeepQ.Replay = expreplay.Config{
		MaxReplayCapacity: 10_000,
		MinReplayCapacity: 65,
		BatchSize:         64,
	}
	c.DeepQ.WarmupEpisodes = 10
	c.Training = experiment.Config{
		MaxEpisodes:      1000,
		MaxEpisodeSteps:  cartpole.DefaultEpisodeSteps,
		CheckEvery:       100,
		SuccessThreshold: 475,
		EvalEpisodes:     100,
	}
	return c
}

// Load reads a JSON configuration from filename. Fields absent from the
// file keep the defaults of the file's variant, which is lunar if the
// file does not name one.
func Load(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("load %v: %w", filename, err)
	}
	return c, nil
}

// Parse decodes a JSON configuration over the defaults of its variant
func Parse(data []byte) (Config, error) {
	var header struct{ Variant Variant }
	if err := json.Unmarshal(data, &header); err != nil {
		return Config{}, fmt.Errorf("parse: %w", err)
	}
	if header.Variant == "" {
		header.Variant = Lunar
	}

	c, err := Default(header.Variant)
	if err != nil {
		return Config{}, fmt.Errorf("parse: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("parse: %w", err)
	}
	return c, nil
}

// Save writes the configuration to filename as indented JSON
func (c Config) Save(filename string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// ReplyTimeout returns the bridge reply timeout
func (c Config) ReplyTimeout() time.Duration {
	return time.Duration(c.Transport.ReplyTimeout)
}

// Bridge returns the configuration of the environment bridge
func (c Config) Bridge() bridge.Config {
	return bridge.Config{
		Protocol:     c.Protocol,
		Codes:        append([]int(nil), c.Actions.Codes...),
		ReplyTimeout: c.ReplyTimeout(),
	}
}

// CheckpointEvery returns the checkpointing interval in episodes
func (c Config) CheckpointEvery() int {
	if c.Checkpoint.Every > 0 {
		return c.Checkpoint.Every
	}
	return c.Training.CheckEvery
}

// Validate checks the configuration for consistency
func (c Config) Validate() error {
	features := c.Variant.Features()
	if features == 0 {
		return fmt.Errorf("validate: no such variant %q", c.Variant)
	}

	actions := len(c.Actions.Codes)
	if actions == 0 {
		return fmt.Errorf("validate: must have at least one action")
	}
	if c.Variant == Cartpole && actions != cartpole.Actions {
		return fmt.Errorf("validate: cartpole has %v actions, have %v codes",
			cartpole.Actions, actions)
	}
	if c.Actions.Weights != nil && len(c.Actions.Weights) != actions {
		return fmt.Errorf("validate: have %v exploration weights for %v "+
			"actions", len(c.Actions.Weights), actions)
	}

	if c.Variant == Lunar {
		if err := c.Bridge().Validate(); err != nil {
			return fmt.Errorf("validate: %v", err)
		}
		switch c.Transport.Kind {
		case MQTT:
			if err := c.Transport.MQTT.Validate(); err != nil {
				return fmt.Errorf("validate: mqtt: %v", err)
			}
		case Simulator:
			if err := c.Transport.Simulator.Validate(); err != nil {
				return fmt.Errorf("validate: simulator: %v", err)
			}
		default:
			return fmt.Errorf("validate: no such transport %q",
				c.Transport.Kind)
		}
	}

	if err := c.validateTabular(features); err != nil {
		return fmt.Errorf("validate: tabular: %v", err)
	}
	if err := c.validateDeepQ(); err != nil {
		return fmt.Errorf("validate: deepq: %v", err)
	}

	if err := c.Training.Validate(); err != nil {
		return fmt.Errorf("validate: training: %v", err)
	}
	if c.Checkpoint.Every < 0 {
		return fmt.Errorf("validate: checkpoint interval cannot be negative")
	}
	return nil
}

func (c Config) validateTabular(features int) error {
	t := c.Tabular
	if len(t.Buckets) != features || len(t.Lower) != features ||
		len(t.Upper) != features {
		return fmt.Errorf("need %v buckets and bounds, have %v buckets, %v "+
			"lower and %v upper bounds", features, len(t.Buckets),
			len(t.Lower), len(t.Upper))
	}
	for i := range t.Buckets {
		if t.Buckets[i] < 1 {
			return fmt.Errorf("dimension %v must have at least one bucket", i)
		}
		if t.Lower[i] >= t.Upper[i] {
			return fmt.Errorf("dimension %v: lower bound %v must be below "+
				"upper bound %v", i, t.Lower[i], t.Upper[i])
		}
	}

	for name, s := range map[string]schedule.Config{
		"learning rate": t.LearningRate,
		"discount":      t.Discount,
		"explore rate":  t.ExploreRate,
	} {
		if _, err := s.Create(); err != nil {
			return fmt.Errorf("%v: %v", name, err)
		}
	}
	return nil
}

func (c Config) validateDeepQ() error {
	d := c.DeepQ
	if err := d.Agent(c.Actions.Weights).Validate(); err != nil {
		return err
	}
	if _, err := d.Epsilon.Create(); err != nil {
		return fmt.Errorf("epsilon: %v", err)
	}
	if d.WarmupEpisodes < 0 {
		return fmt.Errorf("warmup episodes cannot be negative")
	}

	switch d.Network.Type {
	case MLP:
		if err := d.Network.MLP.Validate(); err != nil {
			return fmt.Errorf("network: %v", err)
		}
	case Linear:
		if d.Network.StepSize <= 0 {
			return fmt.Errorf("network: linear step size must be positive")
		}
	default:
		return fmt.Errorf("no such network %q", d.Network.Type)
	}
	return nil
}
