// Package schedule implements attempt-indexed schedules for learning
// rates, discount factors, and exploration rates.
package schedule

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/samuelfneumann/lunarlearn/utils/floatutils"
)

// Schedule maps an attempt (episode) index to a rate
type Schedule interface {
	Rate(attempt int) float64
}

// LogDecay is a Schedule which decays logarithmically in the attempt
// number:
//
//	rate(n) = clip(Max - log10((n+1) / Decay), Min, Max)
//
// The rate stays at Max until roughly Decay attempts have passed and then
// falls by one unit per decade of attempts until it reaches Min.
type LogDecay struct {
	Min   float64
	Max   float64
	Decay float64
}

// NewLogDecay returns a new LogDecay schedule
func NewLogDecay(min, max, decay float64) (LogDecay, error) {
	l := LogDecay{Min: min, Max: max, Decay: decay}
	return l, l.Validate()
}

// Validate checks that the schedule parameters are legal
func (l LogDecay) Validate() error {
	if l.Min > l.Max {
		return fmt.Errorf("logdecay: min (%v) cannot exceed max (%v)", l.Min,
			l.Max)
	}
	if l.Decay <= 0 {
		return fmt.Errorf("logdecay: decay must be positive")
	}
	return nil
}

// Rate returns the rate for attempt n, which always lies in [Min, Max]
func (l LogDecay) Rate(attempt int) float64 {
	rate := l.Max - math.Log10(float64(attempt+1)/l.Decay)
	return floatutils.Clip(rate, l.Min, l.Max)
}

// Phase is a single linear segment of a Linear schedule. Over Episodes
// attempts the rate moves in equal steps towards Target.
type Phase struct {
	Episodes int
	Target   float64
}

// Linear is a piecewise-linear Schedule. Starting at Initial, the rate
// moves towards each Phase's Target in equal per-attempt increments over
// that Phase's Episodes, and stays at the final Target afterwards.
type Linear struct {
	Initial float64
	Phases  []Phase
}

// NewLinear returns a new Linear schedule
func NewLinear(initial float64, phases ...Phase) (Linear, error) {
	l := Linear{Initial: initial, Phases: phases}
	return l, l.Validate()
}

// Validate checks that the schedule parameters are legal
func (l Linear) Validate() error {
	for i, p := range l.Phases {
		if p.Episodes <= 0 {
			return fmt.Errorf("linear: phase %v must last at least one "+
				"episode", i)
		}
	}
	return nil
}

// Rate returns the rate for attempt n
func (l Linear) Rate(attempt int) float64 {
	start := l.Initial
	for _, p := range l.Phases {
		if attempt < p.Episodes {
			step := (p.Target - start) / float64(p.Episodes)
			return start + step*float64(attempt)
		}
		attempt -= p.Episodes
		start = p.Target
	}
	return start
}

// Constant is a Schedule which always returns the same rate
type Constant float64

// Rate returns the constant rate
func (c Constant) Rate(int) float64 {
	return float64(c)
}

// Type names a kind of Schedule in a Config
type Type string

const (
	LogDecayType Type = "LogDecay"
	LinearType   Type = "Linear"
	ConstantType Type = "Constant"
)

// Config is a JSON-serializable description of a Schedule. Only the
// fields relevant to Type are used.
type Config struct {
	Type

	// LogDecay
	Min   float64 `json:",omitempty"`
	Max   float64 `json:",omitempty"`
	Decay float64 `json:",omitempty"`

	// Linear and Constant
	Initial float64 `json:",omitempty"`
	Phases  []Phase `json:",omitempty"`
}

// LogDecayConfig returns the Config of a LogDecay schedule with the
// given (min, max, decay) triple
func LogDecayConfig(min, max, decay float64) Config {
	return Config{Type: LogDecayType, Min: min, Max: max, Decay: decay}
}

// Create returns the Schedule described by the Config
func (c Config) Create() (Schedule, error) {
	switch c.Type {
	case LogDecayType:
		return NewLogDecay(c.Min, c.Max, c.Decay)

	case LinearType:
		return NewLinear(c.Initial, c.Phases...)

	case ConstantType:
		return Constant(c.Initial), nil
	}
	return nil, fmt.Errorf("create: no such schedule type %q", c.Type)
}

// UnmarshalJSON implements the json.Unmarshaler interface. A bare
// JSON array [min, max, decay] is accepted as a LogDecay schedule.
func (c *Config) UnmarshalJSON(data []byte) error {
	var triple []float64
	if err := json.Unmarshal(data, &triple); err == nil {
		if len(triple) != 3 {
			return fmt.Errorf("unmarshaljson: schedule triple must have 3 "+
				"elements, have %v", len(triple))
		}
		*c = LogDecayConfig(triple[0], triple[1], triple[2])
		return nil
	}

	type config Config
	var conf config
	if err := json.Unmarshal(data, &conf); err != nil {
		return err
	}
	*c = Config(conf)
	return nil
}
