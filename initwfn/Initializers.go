package initwfn

import G "gorgonia.org/gorgonia"

// GlorotUConfig configures the Glorot uniform initialiser
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot uniform weight initialiser
func NewGlorotU(gain float64) *InitWFn {
	return New(&GlorotUConfig{Gain: gain})
}

func (g *GlorotUConfig) Type() Type        { return GlorotU }
func (g *GlorotUConfig) Create() G.InitWFn { return G.GlorotU(g.Gain) }

// GlorotNConfig configures the Glorot normal initialiser
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a new Glorot normal weight initialiser
func NewGlorotN(gain float64) *InitWFn {
	return New(&GlorotNConfig{Gain: gain})
}

func (g *GlorotNConfig) Type() Type        { return GlorotN }
func (g *GlorotNConfig) Create() G.InitWFn { return G.GlorotN(g.Gain) }

// HeUConfig configures the He uniform initialiser
type HeUConfig struct {
	Gain float64
}

// NewHeU returns a new He uniform weight initialiser
func NewHeU(gain float64) *InitWFn {
	return New(&HeUConfig{Gain: gain})
}

func (h *HeUConfig) Type() Type        { return HeU }
func (h *HeUConfig) Create() G.InitWFn { return G.HeU(h.Gain) }

// HeNConfig configures the He normal initialiser
type HeNConfig struct {
	Gain float64
}

// NewHeN returns a new He normal weight initialiser
func NewHeN(gain float64) *InitWFn {
	return New(&HeNConfig{Gain: gain})
}

func (h *HeNConfig) Type() Type        { return HeN }
func (h *HeNConfig) Create() G.InitWFn { return G.HeN(h.Gain) }

// GaussianConfig draws weights from a gaussian distribution
type GaussianConfig struct {
	Mean, StdDev float64
}

// NewGaussian returns a new gaussian weight initialiser
func NewGaussian(mean, stddev float64) *InitWFn {
	return New(&GaussianConfig{Mean: mean, StdDev: stddev})
}

func (u *GaussianConfig) Type() Type { return Gaussian }
func (u *GaussianConfig) Create() G.InitWFn {
	return G.Gaussian(u.Mean, u.StdDev)
}

// UniformConfig draws weights uniformly from [Low, High)
type UniformConfig struct {
	Low, High float64
}

// NewUniform returns a new uniform weight initialiser
func NewUniform(low, high float64) *InitWFn {
	return New(&UniformConfig{Low: low, High: high})
}

func (u *UniformConfig) Type() Type        { return Uniform }
func (u *UniformConfig) Create() G.InitWFn { return G.Uniform(u.Low, u.High) }

// ZeroesConfig initialises all weights to 0
type ZeroesConfig struct{}

// NewZeroes returns a new zero weight initialiser
func NewZeroes() *InitWFn {
	return New(&ZeroesConfig{})
}

func (z *ZeroesConfig) Type() Type        { return Zeroes }
func (z *ZeroesConfig) Create() G.InitWFn { return G.Zeroes() }

// ConstantConfig initialises all weights to Value
type ConstantConfig struct {
	Value float64
}

// NewConstant returns a new constant weight initialiser
func NewConstant(value float64) *InitWFn {
	return New(&ConstantConfig{Value: value})
}

func (c *ConstantConfig) Type() Type        { return Constant }
func (c *ConstantConfig) Create() G.InitWFn { return G.ValuesOf(c.Value) }
