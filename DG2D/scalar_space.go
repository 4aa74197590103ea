package DG2D

import "fmt"

// ScalarSpace is the discontinuous scalar space paired with the velocity space, DG of order-1
type ScalarSpace struct {
	Order int
	Np    int
}

func NewScalarSpace(order int) (ss ScalarSpace, err error) {
	if order != 0 {
		err = fmt.Errorf("discontinuous scalar space of order %d is not implemented, only DG0", order)
		return
	}
	ss = ScalarSpace{Order: 0, Np: 1}
	return
}

// Eval fills the basis values and gradients at (x, y) in a cell, constant for DG0
func (ss ScalarSpace) Eval(chi []float64, gradChi [][2]float64) {
	chi[0] = 1
	gradChi[0] = [2]float64{}
}
