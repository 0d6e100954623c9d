package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/samuelfneumann/lunarlearn/initwfn"
	"github.com/samuelfneumann/lunarlearn/solver"
	"github.com/samuelfneumann/lunarlearn/utils/matutils"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLPConfig describes the hidden layers of an MLP and how it is
// trained. A final linear layer with a bias unit is always added so
// that the network outputs one value per action.
type MLPConfig struct {
	HiddenSizes []int
	Activations []*Activation
	Biases      []bool // nil if every hidden layer has a bias unit
	InitWFn     *initwfn.InitWFn
	Solver      *solver.Solver
}

// DefaultMLPConfig returns the configuration of the lunar lander
// action-value network
func DefaultMLPConfig() MLPConfig {
	adam, err := solver.New(solver.DefaultAdam())
	if err != nil {
		panic(fmt.Sprintf("defaultmlpconfig: %v", err))
	}

	return MLPConfig{
		HiddenSizes: []int{256, 256, 512},
		Activations: []*Activation{ReLU(), ReLU(), TanH()},
		InitWFn:     initwfn.NewGlorotU(1.0),
		Solver:      adam,
	}
}

// Validate checks that the configuration describes a valid network
func (c MLPConfig) Validate() error {
	if len(c.HiddenSizes) != len(c.Activations) {
		return fmt.Errorf("invalid number of activations\n\twant(%d)"+
			"\n\thave(%d)", len(c.HiddenSizes), len(c.Activations))
	}
	if c.Biases != nil && len(c.HiddenSizes) != len(c.Biases) {
		return fmt.Errorf("invalid number of biases\n\twant(%d)"+
			"\n\thave(%d)", len(c.HiddenSizes), len(c.Biases))
	}
	for i, size := range c.HiddenSizes {
		if size < 1 {
			return fmt.Errorf("hidden layer %v must have positive size", i)
		}
		if c.Activations[i] == nil {
			return fmt.Errorf("hidden layer %v has no activation", i)
		}
	}
	if c.InitWFn == nil {
		return fmt.Errorf("no weight initialiser")
	}
	if c.Solver == nil {
		return fmt.Errorf("no solver")
	}
	return nil
}

func (c MLPConfig) bias(layer int) bool {
	return c.Biases == nil || c.Biases[layer]
}

// net is a single forward pass of the MLP for a fixed batch size,
// compiled into its own graph
type net struct {
	g          *G.ExprGraph
	input      *G.Node
	layers     []*fcLayer
	prediction *G.Node
	predVal    G.Value
	batch      int
	version    int
}

// newNet runs the forward pass of layers on a new batch × features
// input node in g
func newNet(g *G.ExprGraph, layers []*fcLayer, features,
	batch int) (*net, error) {
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	n := &net{g: g, input: input, layers: layers, batch: batch}

	pred := input
	var err error
	for i, l := range layers {
		if pred, err = l.fwd(pred); err != nil {
			return nil, fmt.Errorf("could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}
	n.prediction = pred
	G.Read(n.prediction, &n.predVal)

	return n, nil
}

// cloneWithBatch clones the network and its current weights into a new
// graph with a new batch size
func (n *net) cloneWithBatch(features, batch int) (*net, error) {
	g := G.NewGraph()
	layers := make([]*fcLayer, len(n.layers))
	for i := range n.layers {
		layers[i] = n.layers[i].cloneTo(g)
	}
	return newNet(g, layers, features, batch)
}

func (n *net) setInput(states []float64) error {
	backing := make([]float64, len(states))
	copy(backing, states)
	return G.Let(n.input, tensor.New(
		tensor.WithBacking(backing),
		tensor.WithShape(n.input.Shape()...),
	))
}

func (n *net) learnables() G.Nodes {
	learnables := make(G.Nodes, 0, 2*len(n.layers))
	for _, l := range n.layers {
		learnables = append(learnables, l.learnables()...)
	}
	return learnables
}

func (n *net) model() []G.ValueGrad {
	learnables := n.learnables()
	model := make([]G.ValueGrad, len(learnables))
	for i, node := range learnables {
		model[i] = node
	}
	return model
}

// set sets the weights of dest to be equal to the weights of source
func (dest *net) set(source *net) error {
	sourceNodes := source.learnables()
	for i, destLearnable := range dest.learnables() {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	dest.version = source.version
	return nil
}

// predictor is a net compiled for inference
type predictor struct {
	*net
	vm G.VM
}

// trainer is a net extended with the squared error loss on the values
// of the taken actions
type trainer struct {
	*net
	vm       G.VM
	selected *G.Node
	targets  *G.Node
	costVal  G.Value
}

func newTrainer(n *net, actions int) (*trainer, error) {
	t := &trainer{net: n}

	t.selected = G.NewMatrix(n.g, tensor.Float64,
		G.WithShape(n.batch, actions), G.WithName("selectedActions"),
		G.WithInit(G.Zeroes()))
	t.targets = G.NewVector(n.g, tensor.Float64, G.WithShape(n.batch),
		G.WithName("targets"), G.WithInit(G.Zeroes()))

	values := G.Must(G.HadamardProd(n.prediction, t.selected))
	values = G.Must(G.Sum(values, 1))

	losses := G.Must(G.Sub(t.targets, values))
	losses = G.Must(G.Square(losses))
	cost := G.Must(G.Mean(losses))
	G.Read(cost, &t.costVal)

	if _, err := G.Grad(cost, n.learnables()...); err != nil {
		return nil, fmt.Errorf("could not compute gradient: %v", err)
	}

	t.vm = G.NewTapeMachine(n.g, G.BindDualValues(n.learnables()...))
	return t, nil
}

// MLP is a multi-layered perceptron action-value function built with
// Gorgonia. Each batch size used for prediction is compiled into its
// own graph, which is synchronised with the training graph lazily after
// the weights change.
type MLP struct {
	features, actions int
	config            MLPConfig

	// Canonical weights live in trainer once Fit has been called and in
	// the batch-1 predictor before that
	base       *net
	trainer    *trainer
	predictors map[int]*predictor
	version    int
}

// NewMLP returns a new MLP
func NewMLP(features, actions int, c MLPConfig) (*MLP, error) {
	if features < 1 || actions < 1 {
		return nil, fmt.Errorf("newmlp: features and actions must be " +
			"positive")
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newmlp: %v", err)
	}

	g := G.NewGraph()
	layers := make([]*fcLayer, 0, len(c.HiddenSizes)+1)
	in := features
	for i, size := range c.HiddenSizes {
		layers = append(layers, newFCLayer(g, i, in, size, c.bias(i),
			c.Activations[i], c.InitWFn.InitWFn()))
		in = size
	}
	layers = append(layers, newFCLayer(g, len(c.HiddenSizes), in, actions,
		true, Identity(), c.InitWFn.InitWFn()))

	base, err := newNet(g, layers, features, 1)
	if err != nil {
		return nil, fmt.Errorf("newmlp: %v", err)
	}

	return &MLP{
		features:   features,
		actions:    actions,
		config:     c,
		base:       base,
		predictors: map[int]*predictor{1: {base, G.NewTapeMachine(g)}},
	}, nil
}

// Features returns the number of features in a single observation
func (m *MLP) Features() int {
	return m.features
}

// Actions returns the number of actions
func (m *MLP) Actions() int {
	return m.actions
}

// source returns the net holding the most recent weights
func (m *MLP) source() *net {
	if m.trainer != nil {
		return m.trainer.net
	}
	return m.base
}

func (m *MLP) predictor(batch int) (*predictor, error) {
	p, ok := m.predictors[batch]
	if !ok {
		n, err := m.source().cloneWithBatch(m.features, batch)
		if err != nil {
			return nil, err
		}
		p = &predictor{n, G.NewTapeMachine(n.g)}
		m.predictors[batch] = p
	}

	if p.net != m.source() && p.version != m.version {
		if err := p.set(m.source()); err != nil {
			return nil, fmt.Errorf("could not synchronise weights: %v", err)
		}
	}
	return p, nil
}

// Predict returns the action values of each observation in the batch
func (m *MLP) Predict(states []float64, batch int) (*mat.Dense, error) {
	if err := checkPredict(m, states, batch); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}

	p, err := m.predictor(batch)
	if err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	if err := p.setInput(states); err != nil {
		return nil, fmt.Errorf("predict: could not set input: %v", err)
	}

	defer p.vm.Reset()
	if err := p.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}

	values := make([]float64, batch*m.actions)
	copy(values, p.predVal.Data().([]float64))
	return mat.NewDense(batch, m.actions, values), nil
}

// trainerFor returns the trainer for the batch size, rebuilding it from
// the current weights if the batch size changed
func (m *MLP) trainerFor(batch int) (*trainer, error) {
	if m.trainer != nil && m.trainer.batch == batch {
		return m.trainer, nil
	}

	n, err := m.source().cloneWithBatch(m.features, batch)
	if err != nil {
		return nil, err
	}
	n.version = m.version
	t, err := newTrainer(n, m.actions)
	if err != nil {
		return nil, err
	}

	if m.trainer != nil {
		m.config.Solver.Reset()
	}
	m.trainer = t
	return t, nil
}

// Fit takes one solver step on the mean squared error between targets
// and the values of the taken actions and returns the loss before the
// step
func (m *MLP) Fit(states []float64, actions []int,
	targets []float64) (float64, error) {
	if err := checkFit(m, states, actions, targets); err != nil {
		return 0, fmt.Errorf("fit: %v", err)
	}
	batch := len(actions)

	t, err := m.trainerFor(batch)
	if err != nil {
		return 0, fmt.Errorf("fit: %v", err)
	}

	if err := t.setInput(states); err != nil {
		return 0, fmt.Errorf("fit: could not set input: %v", err)
	}
	oneHot := matutils.OneHot(actions, m.actions)
	if err := G.Let(t.selected, tensor.New(
		tensor.WithBacking(oneHot.RawMatrix().Data),
		tensor.WithShape(batch, m.actions),
	)); err != nil {
		return 0, fmt.Errorf("fit: could not set actions: %v", err)
	}
	backing := make([]float64, batch)
	copy(backing, targets)
	if err := G.Let(t.targets, tensor.New(
		tensor.WithBacking(backing),
		tensor.WithShape(batch),
	)); err != nil {
		return 0, fmt.Errorf("fit: could not set targets: %v", err)
	}

	defer t.vm.Reset()
	if err := t.vm.RunAll(); err != nil {
		return 0, fmt.Errorf("fit: %v", err)
	}
	loss := t.costVal.Data().(float64)

	if err := m.config.Solver.Step(t.model()); err != nil {
		return 0, fmt.Errorf("fit: solver step: %v", err)
	}
	m.version++
	t.version = m.version

	return loss, nil
}

// weights returns copies of the current weights in layer order
func (m *MLP) weights() [][]float64 {
	learnables := m.source().learnables()
	weights := make([][]float64, len(learnables))
	for i, node := range learnables {
		data := node.Value().Data().([]float64)
		weights[i] = append([]float64(nil), data...)
	}
	return weights
}

// GobEncode implements the gob.GobEncoder interface. Only the
// architecture and weights are encoded; solver state is not.
func (m *MLP) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	biases := make([]bool, len(m.config.HiddenSizes))
	for i := range biases {
		biases[i] = m.config.bias(i)
	}

	fields := []interface{}{
		m.features,
		m.actions,
		m.config.HiddenSizes,
		m.config.Activations,
		biases,
		m.weights(),
	}
	for _, f := range fields {
		if err := enc.Encode(f); err != nil {
			return nil, fmt.Errorf("gobencode: %v", err)
		}
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The MLP being
// decoded into must have been created with NewMLP and have the same
// architecture as the encoded MLP.
func (m *MLP) GobDecode(in []byte) error {
	if m.base == nil {
		return fmt.Errorf("gobdecode: cannot decode into an MLP not " +
			"created with NewMLP")
	}
	dec := gob.NewDecoder(bytes.NewReader(in))

	var features, actions int
	var hiddenSizes []int
	var activations []*Activation
	var biases []bool
	var weights [][]float64
	fields := []interface{}{
		&features, &actions, &hiddenSizes, &activations, &biases, &weights,
	}
	for _, f := range fields {
		if err := dec.Decode(f); err != nil {
			return fmt.Errorf("gobdecode: %v", err)
		}
	}

	if features != m.features || actions != m.actions {
		return fmt.Errorf("gobdecode: decoded shape (%v, %v) does not "+
			"match (%v, %v)", features, actions, m.features, m.actions)
	}
	if len(hiddenSizes) != len(m.config.HiddenSizes) {
		return fmt.Errorf("gobdecode: decoded %v hidden layers, have %v",
			len(hiddenSizes), len(m.config.HiddenSizes))
	}
	for i := range hiddenSizes {
		if hiddenSizes[i] != m.config.HiddenSizes[i] ||
			activations[i].String() != m.config.Activations[i].String() ||
			biases[i] != m.config.bias(i) {
			return fmt.Errorf("gobdecode: hidden layer %v does not match", i)
		}
	}

	source := m.source()
	learnables := source.learnables()
	if len(weights) != len(learnables) {
		return fmt.Errorf("gobdecode: decoded %v weight tensors, have %v",
			len(weights), len(learnables))
	}
	for i, node := range learnables {
		if len(weights[i]) != node.Shape().TotalSize() {
			return fmt.Errorf("gobdecode: weight tensor %v has size %v, "+
				"want %v", i, len(weights[i]), node.Shape().TotalSize())
		}
		err := G.Let(node, tensor.New(
			tensor.WithBacking(weights[i]),
			tensor.WithShape(node.Shape()...),
		))
		if err != nil {
			return fmt.Errorf("gobdecode: %v", err)
		}
	}

	m.version++
	source.version = m.version
	return nil
}
