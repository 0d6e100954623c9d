package experiment

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	env "github.com/samuelfneumann/lunarlearn/environment"
	"github.com/samuelfneumann/lunarlearn/experiment/checkpointer"
	"github.com/samuelfneumann/lunarlearn/experiment/trackers"
	ts "github.com/samuelfneumann/lunarlearn/timestep"
)

// State is the state of a TrainingLoop
type State int

const (
	Running State = iota
	Evaluating
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Evaluating:
		return "Evaluating"
	case Terminated:
		return "Terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Phase is the kind of episode being run
type Phase string

const (
	Warmup Phase = "warmup"
	Train  Phase = "train"
	Eval   Phase = "eval"
)

// Episode summarizes a single finished episode
type Episode struct {
	Phase   Phase
	Attempt int // 1-based index of the episode within its phase
	Return  float64
	Steps   int
	Done    bool // false if the episode was cut off at MaxEpisodeSteps
}

// Result summarizes a call to Run
type Result struct {
	State State

	// Solved is true if a greedy evaluation reached the success
	// threshold
	Solved bool

	Episodes    int // training episodes run
	Evaluations int // evaluation phases run

	// Average is the average training reward at the most recent check
	// and EvalAverage the average reward of the most recent evaluation
	Average     float64
	EvalAverage float64
}

// TrainingLoop runs a Learner on an Environment episode by episode.
// Every CheckEvery training episodes it checkpoints and compares the
// average reward since the previous check with the success threshold.
// When the threshold is exceeded the loop switches to Evaluating and
// runs greedy episodes without learning; if these also exceed the
// threshold the loop is Terminated, otherwise training resumes.
//
// A TrainingLoop must only be used from a single goroutine.
type TrainingLoop struct {
	environment   env.Environment
	learner       Learner
	config        Config
	checkpointers []checkpointer.Checkpointer
	returns       *trackers.Return
	onEpisode     []func(Episode)

	state       State
	warm        bool
	episodes    int
	evaluations int
	windowSum   float64
	windowLen   int
	average     float64
	evalAverage float64
}

// New returns a new TrainingLoop
func New(e env.Environment, l Learner, c Config,
	checkpointers ...checkpointer.Checkpointer) (*TrainingLoop, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if e == nil || l == nil {
		return nil, fmt.Errorf("new: environment and learner must be set")
	}

	return &TrainingLoop{
		environment:   e,
		learner:       l,
		config:        c,
		checkpointers: checkpointers,
		returns:       trackers.NewReturn(),
		state:         Running,
	}, nil
}

// Register adds a Checkpointer to the loop. Checkpointers are called
// after every training episode with the number of training episodes
// completed.
func (t *TrainingLoop) Register(c checkpointer.Checkpointer) {
	t.checkpointers = append(t.checkpointers, c)
}

// Notify registers f to be called after every finished episode
func (t *TrainingLoop) Notify(f func(Episode)) {
	t.onEpisode = append(t.onEpisode, f)
}

// State returns the current state of the loop
func (t *TrainingLoop) State() State {
	return t.state
}

// Returns returns the tracker of training episode returns
func (t *TrainingLoop) Returns() *trackers.Return {
	return t.returns
}

// Run runs warm-up episodes, if any have not yet been run, then trains
// until the loop is Terminated or MaxEpisodes training episodes have
// been run. Any environment or learner error aborts the run.
func (t *TrainingLoop) Run(ctx context.Context) (Result, error) {
	if !t.warm {
		for i := 1; i <= t.config.WarmupEpisodes; i++ {
			if _, err := t.runEpisode(ctx, Warmup, i); err != nil {
				return t.result(), fmt.Errorf("run: warmup: %w", err)
			}
		}
		t.warm = true
	}

	for t.state != Terminated {
		if t.config.MaxEpisodes > 0 && t.episodes >= t.config.MaxEpisodes {
			klog.InfoS("Reached episode limit", "episodes", t.episodes)
			break
		}
		if err := t.trainEpisode(ctx); err != nil {
			return t.result(), fmt.Errorf("run: %w", err)
		}
	}

	return t.result(), nil
}

// trainEpisode runs a single training episode followed by any
// checkpointing and evaluation that is due
func (t *TrainingLoop) trainEpisode(ctx context.Context) error {
	attempt := t.episodes + 1
	t.learner.BeginEpisode(attempt)

	ep, err := t.runEpisode(ctx, Train, attempt)
	if err != nil {
		return err
	}
	t.episodes++
	t.windowSum += ep.Return
	t.windowLen++

	for _, c := range t.checkpointers {
		if err := c.Checkpoint(ctx, t.episodes); err != nil {
			return err
		}
	}

	if t.episodes%t.config.CheckEvery != 0 {
		return nil
	}

	t.average = t.windowSum / float64(t.windowLen)
	t.windowSum, t.windowLen = 0, 0
	metricAverageReward.WithLabelValues(string(Train)).Set(t.average)
	klog.InfoS("Checked training progress", "episodes", t.episodes,
		"averageReward", t.average, "threshold", t.config.SuccessThreshold)

	if t.average <= t.config.SuccessThreshold {
		return nil
	}

	t.setState(Evaluating)
	solved, err := t.evaluate(ctx)
	if err != nil {
		return err
	}
	if solved {
		t.setState(Terminated)
	} else {
		t.setState(Running)
	}
	return nil
}

// evaluate runs EvalEpisodes greedy episodes without learning and
// reports whether their average reward exceeds the success threshold
func (t *TrainingLoop) evaluate(ctx context.Context) (bool, error) {
	var total float64
	for i := 1; i <= t.config.EvalEpisodes; i++ {
		ep, err := t.runEpisode(ctx, Eval, i)
		if err != nil {
			return false, fmt.Errorf("evaluate: %w", err)
		}
		total += ep.Return
	}
	t.evaluations++

	t.evalAverage = total / float64(t.config.EvalEpisodes)
	metricAverageReward.WithLabelValues(string(Eval)).Set(t.evalAverage)
	klog.InfoS("Evaluated greedy policy", "episodes", t.episodes,
		"averageReward", t.evalAverage,
		"threshold", t.config.SuccessThreshold)

	return t.evalAverage > t.config.SuccessThreshold, nil
}

// runEpisode runs a single episode of the given phase. Warm-up episodes
// act randomly and only record transitions, evaluation episodes act
// greedily and never learn.
func (t *TrainingLoop) runEpisode(ctx context.Context, phase Phase,
	attempt int) (Episode, error) {
	ep := Episode{Phase: phase, Attempt: attempt}

	step, err := t.environment.Reset(ctx)
	if err != nil {
		return ep, fmt.Errorf("%v episode %v: %w", phase, attempt, err)
	}
	if phase == Train {
		t.returns.Track(step)
	}

	for {
		var action int
		if phase == Warmup {
			action = t.learner.Random()
		} else {
			action, err = t.learner.Act(step.Observation, phase == Eval)
			if err != nil {
				return ep, fmt.Errorf("%v episode %v: %w", phase, attempt,
					err)
			}
		}

		next, done, err := t.environment.Step(ctx, action)
		if err != nil {
			return ep, fmt.Errorf("%v episode %v: %w", phase, attempt, err)
		}
		ep.Steps++
		ep.Return += next.Reward

		transition := ts.Transition{
			State:     step.Observation,
			Action:    action,
			Reward:    next.Reward,
			NextState: next.Observation,
			Terminal:  done,
		}
		switch phase {
		case Warmup:
			err = t.learner.Warm(transition)
		case Train:
			err = t.learner.Learn(transition)
		}
		if err != nil {
			return ep, fmt.Errorf("%v episode %v: %w", phase, attempt, err)
		}

		truncated := !done && t.config.MaxEpisodeSteps > 0 &&
			ep.Steps >= t.config.MaxEpisodeSteps
		if done || truncated {
			next.StepType = ts.Last
		}
		if phase == Train {
			t.returns.Track(next)
		}

		step = next
		if done || truncated {
			ep.Done = done
			break
		}
	}

	metricEpisodes.WithLabelValues(string(phase)).Inc()
	metricEpisodeReward.WithLabelValues(string(phase)).Set(ep.Return)
	klog.V(1).InfoS("Finished episode", "phase", phase, "attempt", attempt,
		"reward", ep.Return, "steps", ep.Steps, "done", ep.Done)

	for _, f := range t.onEpisode {
		f(ep)
	}
	return ep, nil
}

func (t *TrainingLoop) setState(s State) {
	if t.state != s {
		klog.InfoS("Training loop changed state", "from", t.state, "to", s)
	}
	t.state = s
	metricState.Set(float64(s))
}

func (t *TrainingLoop) result() Result {
	return Result{
		State:       t.state,
		Solved:      t.state == Terminated,
		Episodes:    t.episodes,
		Evaluations: t.evaluations,
		Average:     t.average,
		EvalAverage: t.evalAverage,
	}
}
