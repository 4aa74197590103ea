package InputParameters

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ghodss/yaml"
)

var ErrInvalidParameter = errors.New("invalid input parameter")

// Parameters obtained from the YAML input file
type InputParameters2P struct {
	Title             string             `yaml:"Title"`
	MuRel             float64            `yaml:"MuRel"` // Water to oil viscosity ratio
	Dt                float64            `yaml:"Dt"`
	FinalTime         float64            `yaml:"FinalTime"`
	AbsoluteTolerance float64            `yaml:"AbsoluteTolerance"`
	RelativeTolerance float64            `yaml:"RelativeTolerance"`
	MaxIterations     int                `yaml:"MaxIterations"`
	PolynomialOrder   int                `yaml:"PolynomialOrder"`
	VelocityElement   string             `yaml:"VelocityElement"` // BDM or RT
	QuadratureDegree  int                `yaml:"QuadratureDegree"`
	MeshResolution    int                `yaml:"MeshResolution"` // Cells per side of the unit square, used without a grid file
	LinearSolver      string             `yaml:"LinearSolver"`   // sparse, banded or dense
	Permeability      string             `yaml:"Permeability"`   // channel or constant
	PermeabilityValue float64            `yaml:"PermeabilityValue"`
	Pressure          PressureBC         `yaml:"Pressure"`
	InflowSaturation  map[string]float64 `yaml:"InflowSaturation"` // Boundary marker to injected saturation
	PrintEvery        int                `yaml:"PrintEvery"`
}

// PressureBC is the boundary pressure p = Constant + DPDX*x + DPDY*y
type PressureBC struct {
	Constant float64 `yaml:"Constant"`
	DPDX     float64 `yaml:"DPDX"`
	DPDY     float64 `yaml:"DPDY"`
}

func NewInputParameters2P() *InputParameters2P {
	return &InputParameters2P{
		Title:             "Two phase flow in a channel",
		MuRel:             0.2,
		Dt:                0.01,
		FinalTime:         2.5,
		AbsoluteTolerance: 1.e-12,
		RelativeTolerance: 1.e-6,
		MaxIterations:     10,
		PolynomialOrder:   1,
		VelocityElement:   "BDM",
		QuadratureDegree:  2,
		MeshResolution:    64,
		LinearSolver:      "sparse",
		Permeability:      "channel",
		PermeabilityValue: 1,
		Pressure:          PressureBC{Constant: 1, DPDX: -1},
		PrintEvery:        10,
	}
}

// Parse overwrites only the values present in data, the rest keep their defaults
func (ip *InputParameters2P) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return ip.Validate()
}

func (ip *InputParameters2P) Validate() error {
	var (
		finite = func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
		bad    = func(format string, args ...interface{}) error {
			return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
		}
	)
	switch {
	case !(ip.MuRel > 0) || !finite(ip.MuRel):
		return bad("MuRel must be positive, have %g", ip.MuRel)
	case !(ip.Dt > 0) || !finite(ip.Dt):
		return bad("Dt must be positive, have %g", ip.Dt)
	case !(ip.FinalTime >= 0) || !finite(ip.FinalTime):
		return bad("FinalTime must be non-negative, have %g", ip.FinalTime)
	case !(ip.AbsoluteTolerance >= 0) || !(ip.RelativeTolerance >= 0):
		return bad("tolerances must be non-negative, have %g, %g", ip.AbsoluteTolerance, ip.RelativeTolerance)
	case ip.MaxIterations < 0:
		return bad("MaxIterations must be non-negative, have %d", ip.MaxIterations)
	case ip.PolynomialOrder != 1:
		return bad("PolynomialOrder %d is not available, use 1", ip.PolynomialOrder)
	case ip.QuadratureDegree > 4:
		return bad("QuadratureDegree %d is above the highest available rule 4", ip.QuadratureDegree)
	case ip.MeshResolution < 1:
		return bad("MeshResolution must be at least 1, have %d", ip.MeshResolution)
	}
	switch strings.ToUpper(strings.TrimSpace(ip.VelocityElement)) {
	case "", "BDM", "RT":
	default:
		return bad("VelocityElement [%s], use BDM or RT", ip.VelocityElement)
	}
	switch strings.ToLower(strings.TrimSpace(ip.LinearSolver)) {
	case "", "sparse", "lu", "banded", "band", "dense", "lapack":
	default:
		return bad("LinearSolver [%s], use sparse, banded or dense", ip.LinearSolver)
	}
	switch strings.ToLower(strings.TrimSpace(ip.Permeability)) {
	case "", "channel":
	case "constant":
		if !(ip.PermeabilityValue > 0) || !finite(ip.PermeabilityValue) {
			return bad("PermeabilityValue must be positive, have %g", ip.PermeabilityValue)
		}
	default:
		return bad("Permeability [%s], use channel or constant", ip.Permeability)
	}
	for marker, s := range ip.InflowSaturation {
		if !finite(s) {
			return bad("InflowSaturation[%s] = %g", marker, s)
		}
	}
	return nil
}

func (ip *InputParameters2P) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%8.5f\t\t= MuRel\n", ip.MuRel)
	fmt.Printf("%8.5f\t\t= Dt\n", ip.Dt)
	fmt.Printf("%8.5f\t\t= FinalTime\n", ip.FinalTime)
	fmt.Printf("%8.2e\t\t= Newton Absolute Tolerance\n", ip.AbsoluteTolerance)
	fmt.Printf("%8.2e\t\t= Newton Relative Tolerance\n", ip.RelativeTolerance)
	fmt.Printf("[%d]\t\t\t\t= Max Newton Iterations\n", ip.MaxIterations)
	fmt.Printf("[%s]\t\t\t= Velocity Element\n", ip.VelocityElement)
	fmt.Printf("[%d]\t\t\t\t= Polynomial Order\n", ip.PolynomialOrder)
	fmt.Printf("[%s]\t\t\t= Linear Solver\n", ip.LinearSolver)
	fmt.Printf("[%s]\t\t\t= Permeability\n", ip.Permeability)
	fmt.Printf("p = %g + %g*x + %g*y\t= Boundary Pressure\n", ip.Pressure.Constant, ip.Pressure.DPDX, ip.Pressure.DPDY)
	keys := make([]string, len(ip.InflowSaturation))
	i := 0
	for k := range ip.InflowSaturation {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("InflowSaturation[%s] = %v\n", key, ip.InflowSaturation[key])
	}
}
