package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Linear is a linear action-value function q(s, a) = sᵀwₐ + bₐ trained
// with stochastic gradient descent on the mean squared error. Weights
// are initialised to zero.
type Linear struct {
	features, actions int
	weights           *mat.Dense // features × actions
	bias              *mat.VecDense
	stepSize          float64
}

// NewLinear returns a new Linear action-value function
func NewLinear(features, actions int, stepSize float64) (*Linear, error) {
	if features < 1 || actions < 1 {
		return nil, fmt.Errorf("newlinear: features and actions must be " +
			"positive")
	}
	if stepSize <= 0 {
		return nil, fmt.Errorf("newlinear: step size must be positive")
	}
	return &Linear{
		features: features,
		actions:  actions,
		weights:  mat.NewDense(features, actions, nil),
		bias:     mat.NewVecDense(actions, nil),
		stepSize: stepSize,
	}, nil
}

// Features returns the number of features in a single observation
func (l *Linear) Features() int {
	return l.features
}

// Actions returns the number of actions
func (l *Linear) Actions() int {
	return l.actions
}

// Weights returns copies of the weights and biases
func (l *Linear) Weights() (*mat.Dense, *mat.VecDense) {
	return mat.DenseCopyOf(l.weights), mat.VecDenseCopyOf(l.bias)
}

// SetWeights sets the weights and biases
func (l *Linear) SetWeights(weights *mat.Dense, bias *mat.VecDense) error {
	r, c := weights.Dims()
	if r != l.features || c != l.actions {
		return fmt.Errorf("setweights: invalid weight shape (%v, %v)", r, c)
	}
	if bias.Len() != l.actions {
		return fmt.Errorf("setweights: invalid bias length %v", bias.Len())
	}
	l.weights.Copy(weights)
	l.bias.CopyVec(bias)
	return nil
}

// Predict returns the action values of each observation in the batch
func (l *Linear) Predict(states []float64, batch int) (*mat.Dense, error) {
	if err := checkPredict(l, states, batch); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	return l.predict(states, batch), nil
}

func (l *Linear) predict(states []float64, batch int) *mat.Dense {
	obs := mat.NewDense(batch, l.features, states)
	values := mat.NewDense(batch, l.actions, nil)
	values.Mul(obs, l.weights)
	for i := 0; i < batch; i++ {
		row := values.RowView(i).(*mat.VecDense)
		row.AddVec(row, l.bias)
	}
	return values
}

// Fit takes one gradient descent step on
//
//	L = 1/B Σᵢ (yᵢ - q(sᵢ, aᵢ))²
//
// and returns the loss before the step
func (l *Linear) Fit(states []float64, actions []int,
	targets []float64) (float64, error) {
	if err := checkFit(l, states, actions, targets); err != nil {
		return 0, fmt.Errorf("fit: %v", err)
	}
	batch := len(actions)
	values := l.predict(states, batch)

	gradW := mat.NewDense(l.features, l.actions, nil)
	gradB := mat.NewVecDense(l.actions, nil)
	var loss float64
	scale := -2.0 / float64(batch)
	for i, a := range actions {
		delta := targets[i] - values.At(i, a)
		loss += delta * delta

		obs := states[i*l.features : (i+1)*l.features]
		for j, x := range obs {
			gradW.Set(j, a, gradW.At(j, a)+scale*delta*x)
		}
		gradB.SetVec(a, gradB.AtVec(a)+scale*delta)
	}

	l.weights.Sub(l.weights, scaled(l.stepSize, gradW))
	gradB.ScaleVec(l.stepSize, gradB)
	l.bias.SubVec(l.bias, gradB)

	return loss / float64(batch), nil
}

func scaled(f float64, m *mat.Dense) *mat.Dense {
	m.Scale(f, m)
	return m
}

// GobEncode implements the gob.GobEncoder interface
func (l *Linear) GobEncode() ([]byte, error) {
	weights, err := l.weights.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode weights: %v", err)
	}
	bias, err := l.bias.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode bias: %v", err)
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, v := range []interface{}{l.stepSize, weights, bias} {
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("gobencode: %v", err)
		}
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (l *Linear) GobDecode(in []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(in))

	var stepSize float64
	var weightBytes, biasBytes []byte
	for _, v := range []interface{}{&stepSize, &weightBytes, &biasBytes} {
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("gobdecode: %v", err)
		}
	}

	var weights mat.Dense
	if err := weights.UnmarshalBinary(weightBytes); err != nil {
		return fmt.Errorf("gobdecode: could not decode weights: %v", err)
	}
	var bias mat.VecDense
	if err := bias.UnmarshalBinary(biasBytes); err != nil {
		return fmt.Errorf("gobdecode: could not decode bias: %v", err)
	}

	features, actions := weights.Dims()
	if l.weights != nil && (features != l.features || actions != l.actions) {
		return fmt.Errorf("gobdecode: decoded shape (%v, %v) does not match "+
			"(%v, %v)", features, actions, l.features, l.actions)
	}

	l.features, l.actions = features, actions
	l.weights, l.bias = &weights, &bias
	l.stepSize = stepSize
	return nil
}
