package network

import (
	"errors"
	"fmt"
)

var errEmptyBatch = errors.New("batch must contain at least one sample")

func shapeError(what string, want, have int) error {
	return fmt.Errorf("invalid number of %v \n\twant(%v) \n\thave(%v)", what,
		want, have)
}

func actionError(action, actions int) error {
	return fmt.Errorf("action %v out of range [0, %v)", action, actions)
}
