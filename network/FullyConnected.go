package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newFCLayer adds a new fully connected layer mapping in features to
// out features to the graph g. Biases are initialised to zero.
func newFCLayer(g *G.ExprGraph, index, in, out int, bias bool,
	act *Activation, init G.InitWFn) *fcLayer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(in, out),
		G.WithName(fmt.Sprintf("L%dW", index)),
		G.WithInit(init),
	)

	var b *G.Node
	if bias {
		b = G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(1, out),
			G.WithName(fmt.Sprintf("L%dB", index)),
			G.WithInit(G.Zeroes()),
		)
	}

	return &fcLayer{weights: weights, bias: b, act: act}
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, err
	}
	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x, err = G.BroadcastAdd(x, f.bias, nil, []byte{0})
		if err != nil {
			return nil, err
		}
	}
	if f.act == nil || f.act.IsIdentity() {
		return x, nil
	}
	return f.act.fwd(x)
}

// cloneTo clones an fcLayer, including its current weights, to a new
// computational graph
func (f *fcLayer) cloneTo(g *G.ExprGraph) *fcLayer {
	var bias *G.Node
	if f.bias != nil {
		bias = f.bias.CloneTo(g)
	}

	return &fcLayer{
		weights: f.weights.CloneTo(g),
		bias:    bias,
		act:     f.act,
	}
}

// learnables returns the learnable nodes of the layer
func (f *fcLayer) learnables() G.Nodes {
	if f.bias == nil {
		return G.Nodes{f.weights}
	}
	return G.Nodes{f.weights, f.bias}
}
