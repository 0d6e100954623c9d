package intutils

import "testing"

func TestProd(t *testing.T) {
	tests := []struct {
		in   []int
		prod int
	}{
		{[]int{3, 6, 8, 4}, 576},
		{[]int{2, 2, 2, 2}, 16},
		{[]int{-1, 5}, -5},
		{[]int{7}, 7},
		{nil, 1},
	}

	for _, test := range tests {
		if got := Prod(test.in...); got != test.prod {
			t.Errorf("Prod(%v): want(%v) have(%v)", test.in, test.prod, got)
		}
	}
}
