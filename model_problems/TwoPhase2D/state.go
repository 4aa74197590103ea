package TwoPhase2D

import (
	"math"

	"github.com/mfdali/two-phase-flow/DG2D"
)

// FieldState holds the current iterate U and the last converged state U0, both zero at start
type FieldState struct {
	Disc  *DG2D.Discretization
	U, U0 []float64
}

func NewFieldState(d *DG2D.Discretization) (fs *FieldState) {
	n := d.Layout.Size()
	fs = &FieldState{
		Disc: d,
		U:    make([]float64, n),
		U0:   make([]float64, n),
	}
	return
}

func (fs *FieldState) Velocity() []float64    { return fs.Disc.Layout.View(fs.U, DG2D.Velocity) }
func (fs *FieldState) Pressure() []float64    { return fs.Disc.Layout.View(fs.U, DG2D.Pressure) }
func (fs *FieldState) Saturation() []float64  { return fs.Disc.Layout.View(fs.U, DG2D.Saturation) }
func (fs *FieldState) Velocity0() []float64   { return fs.Disc.Layout.View(fs.U0, DG2D.Velocity) }
func (fs *FieldState) Saturation0() []float64 { return fs.Disc.Layout.View(fs.U0, DG2D.Saturation) }

// Snapshot makes the current state the previous step state
func (fs *FieldState) Snapshot() { copy(fs.U0, fs.U) }

// Restore returns the current state to the last snapshot
func (fs *FieldState) Restore() { copy(fs.U, fs.U0) }

// SaturationAt evaluates the saturation at (x, y), found is false outside the mesh
func (fs *FieldState) SaturationAt(x, y float64) (s float64, found bool) {
	var k int
	if k, found = fs.Disc.Mesh.Locate(x, y); !found {
		return
	}
	return fs.Disc.EvalScalar(k, x, y, fs.Saturation()), true
}

func (fs *FieldState) PressureAt(x, y float64) (p float64, found bool) {
	var k int
	if k, found = fs.Disc.Mesh.Locate(x, y); !found {
		return
	}
	return fs.Disc.EvalScalar(k, x, y, fs.Pressure()), true
}

func (fs *FieldState) VelocityAt(x, y float64) (u [2]float64, found bool) {
	var k int
	if k, found = fs.Disc.Mesh.Locate(x, y); !found {
		return
	}
	return fs.Disc.EvalVelocity(k, x, y, fs.Velocity()), true
}

// SaturationRange returns the extreme saturation DOF values
func (fs *FieldState) SaturationRange() (sMin, sMax float64) {
	sMin, sMax = math.Inf(1), math.Inf(-1)
	for _, s := range fs.Saturation() {
		sMin = math.Min(sMin, s)
		sMax = math.Max(sMax, s)
	}
	return
}
