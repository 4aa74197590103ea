package DG2D

import "fmt"

type Block uint8

const (
	Velocity Block = iota
	Pressure
	Saturation
)

var Blocks = [3]Block{Velocity, Pressure, Saturation}

func (b Block) String() string {
	switch b {
	case Velocity:
		return "velocity"
	case Pressure:
		return "pressure"
	case Saturation:
		return "saturation"
	}
	return fmt.Sprintf("Block(%d)", uint8(b))
}

// Layout partitions the global DOF vector as [velocity | pressure | saturation]
type Layout struct {
	NVelocity, NPressure, NSaturation int
}

func (l Layout) Size() int { return l.NVelocity + l.NPressure + l.NSaturation }

func (l Layout) Len(b Block) int {
	switch b {
	case Velocity:
		return l.NVelocity
	case Pressure:
		return l.NPressure
	case Saturation:
		return l.NSaturation
	}
	panic(fmt.Errorf("unknown block %d", b))
}

func (l Layout) Offset(b Block) int {
	switch b {
	case Velocity:
		return 0
	case Pressure:
		return l.NVelocity
	case Saturation:
		return l.NVelocity + l.NPressure
	}
	panic(fmt.Errorf("unknown block %d", b))
}

// Range returns the half open index range [lo, hi) of block b
func (l Layout) Range(b Block) (lo, hi int) {
	lo = l.Offset(b)
	hi = lo + l.Len(b)
	return
}

// View returns the slice of U holding block b, sharing storage
func (l Layout) View(U []float64, b Block) []float64 {
	lo, hi := l.Range(b)
	return U[lo:hi:hi]
}
