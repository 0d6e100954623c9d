// Package lander simulates the Android lunar lander game and serves it
// over a bridge transport
package lander

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/lunarlearn/environment/bridge"
	"golang.org/x/exp/rand"
)

// Physics constants of the game at medium difficulty. Distances are in
// pixels, angles in degrees and times in seconds.
const (
	DownAccel       = 35.0
	FireAccel       = 80.0
	FuelInit        = 60.0
	FuelPerSec      = 10.0
	SlewPerSec      = 120.0
	SpeedHyperspace = 180.0
	SpeedInit       = 30.0
	TargetAngle     = 25.0
	TargetSpeed     = 100.0
	TargetWidth     = 5 // landing pad width in lander widths
	PadHeight       = 8
	BottomPadding   = 17
)

// Key codes understood by the game
const (
	KeyNone   = 0
	KeyLeft   = 21
	KeyRight  = 22
	KeyCenter = 23
	KeySpace  = 62
)

// Mode is the state of a game
type Mode int

const (
	Running Mode = iota
	Win
	Lose
)

func (m Mode) String() string {
	switch m {
	case Running:
		return "Running"
	case Win:
		return "Win"
	default:
		return "Lose"
	}
}

// Config describes the canvas and the simulation tick
type Config struct {
	CanvasWidth  int
	CanvasHeight int
	LanderWidth  int
	LanderHeight int

	// Tick is the simulated time that passes on every step
	Tick float64
}

// DefaultConfig returns a portrait phone canvas stepped at 30 frames
// per second
func DefaultConfig() Config {
	return Config{
		CanvasWidth:  480,
		CanvasHeight: 800,
		LanderWidth:  56,
		LanderHeight: 64,
		Tick:         1.0 / 30.0,
	}
}

// Validate checks that a landing pad can always be placed away from the
// lander's starting position
func (c Config) Validate() error {
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return fmt.Errorf("canvas dimensions must be positive")
	}
	if c.LanderWidth <= 0 || c.LanderHeight <= 0 {
		return fmt.Errorf("lander dimensions must be positive")
	}
	if c.Tick <= 0 {
		return fmt.Errorf("tick must be positive")
	}

	goalWidth := c.LanderWidth * TargetWidth
	if goalWidth >= c.CanvasWidth {
		return fmt.Errorf("landing pad (%v) wider than canvas (%v)",
			goalWidth, c.CanvasWidth)
	}
	start := float64(c.CanvasWidth/2 - c.LanderWidth/2)
	margin := float64(c.CanvasHeight) / 6
	if start-margin <= 0 && start+margin >= float64(c.CanvasWidth-goalWidth) {
		return fmt.Errorf("no landing pad position is far enough from the " +
			"starting position")
	}
	return nil
}

// Game is a single-player lunar lander game. A Game is not safe for
// concurrent use.
type Game struct {
	config Config
	rng    *rand.Rand

	x, y, dx, dy float64
	heading      float64
	fuel         float64
	goalX        int
	goalWidth    int
	mode         Mode
}

// New returns a new Game, already started
func New(c Config, seed uint64) (*Game, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	g := &Game{
		config:    c,
		rng:       rand.New(rand.NewSource(seed)),
		goalWidth: c.LanderWidth * TargetWidth,
	}
	g.start()
	return g, nil
}

// start places the lander at the top of the canvas with a little random
// motion and chooses a landing pad position not too near the centre
func (g *Game) start() {
	c := g.config
	g.fuel = FuelInit
	g.x = float64(c.CanvasWidth / 2)
	g.y = float64(c.CanvasHeight - c.LanderHeight/2)
	g.dy = g.rng.Float64() * -SpeedInit
	g.dx = g.rng.Float64()*2*SpeedInit - SpeedInit
	g.heading = 0

	for {
		g.goalX = int(g.rng.Float64() * float64(c.CanvasWidth-g.goalWidth))
		left := g.x - float64(c.LanderWidth/2)
		if math.Abs(float64(g.goalX)-left) > float64(c.CanvasHeight)/6 {
			break
		}
	}
	g.mode = Running
}

// Reset starts a new game and returns its state
func (g *Game) Reset() bridge.State {
	g.start()
	return g.State()
}

// Mode returns the mode of the game
func (g *Game) Mode() Mode {
	return g.mode
}

// Fuel returns the remaining fuel
func (g *Game) Fuel() float64 {
	return g.fuel
}

// Speed returns the speed of the lander
func (g *Game) Speed() float64 {
	return math.Hypot(g.dx, g.dy)
}

func (g *Game) onGoal() bool {
	half := float64(g.config.LanderWidth / 2)
	return float64(g.goalX) <= g.x-half &&
		g.x+half <= float64(g.goalX+g.goalWidth)
}

// State returns the observable state of the game
func (g *Game) State() bridge.State {
	return bridge.State{
		X:       g.x,
		Y:       g.y,
		DX:      g.dx,
		DY:      g.dy,
		Heading: g.heading,
		OnGoal:  g.onGoal(),
	}
}

// Step holds down the key with the given code for one tick and returns
// the resulting reply. The reward is 1 on a win and 0 otherwise, and
// the game is done once it leaves the running mode. Steps after the
// game ended leave it unchanged.
func (g *Game) Step(code int) bridge.Reply {
	if g.mode == Running {
		var firing bool
		var rotating float64
		switch code {
		case KeySpace, KeyCenter:
			firing = true
		case KeyLeft:
			rotating = -1
		case KeyRight:
			rotating = 1
		}
		g.update(g.config.Tick, firing, rotating)
	}

	var reward float64
	if g.mode == Win {
		reward = 1
	}
	return bridge.Reply{
		State:  g.State(),
		Reward: reward,
		Done:   g.mode != Running,
	}
}

// update advances the physics by elapsed seconds
func (g *Game) update(elapsed float64, firing bool, rotating float64) {
	if rotating != 0 {
		g.heading += rotating * SlewPerSec * elapsed
		if g.heading < 0 {
			g.heading += 360
		} else if g.heading >= 360 {
			g.heading -= 360
		}
	}

	ddx := 0.0
	ddy := -DownAccel * elapsed

	if firing && g.fuel > 0 {
		elapsedFiring := elapsed
		fuelUsed := elapsedFiring * FuelPerSec

		// Ran out of fuel partway through the tick
		if fuelUsed > g.fuel {
			elapsedFiring = g.fuel / fuelUsed * elapsed
			fuelUsed = g.fuel
		}
		g.fuel -= fuelUsed

		accel := FireAccel * elapsedFiring
		radians := 2 * math.Pi * g.heading / 360
		ddx = math.Sin(radians) * accel
		ddy += math.Cos(radians) * accel
	}

	dxOld, dyOld := g.dx, g.dy
	g.dx += ddx
	g.dy += ddy

	// Position from the average speed over the tick
	g.x += elapsed * (g.dx + dxOld) / 2
	g.y += elapsed * (g.dy + dyOld) / 2

	ground := float64(PadHeight + g.config.LanderHeight/2 - BottomPadding)
	if g.y > ground {
		return
	}
	g.y = ground

	speed := g.Speed()
	onGoal := g.onGoal()
	switch {
	case onGoal && math.Abs(g.heading-180) < TargetAngle &&
		speed > SpeedHyperspace:
		// Upside down and fast: back to the top
		g.start()
	case !onGoal:
		g.mode = Lose
	case !(g.heading <= TargetAngle || g.heading >= 360-TargetAngle):
		g.mode = Lose
	case speed > TargetSpeed:
		g.mode = Lose
	default:
		g.mode = Win
	}
}
