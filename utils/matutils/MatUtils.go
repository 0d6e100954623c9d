// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import "gonum.org/v1/gonum/mat"

// RowMax returns the maximum value of each row of a matrix
func RowMax(matrix *mat.Dense) []float64 {
	r, _ := matrix.Dims()
	maxes := make([]float64, r)

	for i := 0; i < r; i++ {
		maxes[i] = mat.Max(matrix.RowView(i))
	}
	return maxes
}

// OneHot returns a batch of one-hot row vectors, one row per index in
// indices, each with columns entries
func OneHot(indices []int, columns int) *mat.Dense {
	oneHot := mat.NewDense(len(indices), columns, nil)
	for row, col := range indices {
		oneHot.Set(row, col, 1.0)
	}
	return oneHot
}
