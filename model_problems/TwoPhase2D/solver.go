package TwoPhase2D

import (
	"fmt"
	"math"
	"time"

	"github.com/mfdali/two-phase-flow/DG2D"
	"github.com/mfdali/two-phase-flow/LinearSolver"
	"github.com/mfdali/two-phase-flow/NonlinearSolver"
	"github.com/mfdali/two-phase-flow/geometry2D"
)

// Config holds the run parameters, it is not modified once a TwoPhase is built
type Config struct {
	MuRel             float64 // Water to oil viscosity ratio
	Dt, FinalTime     float64
	AbsoluteTolerance float64
	RelativeTolerance float64
	MaxIterations     int // Newton linear solves per step
	VelocityElement   DG2D.VelocityFamily
	PolynomialOrder   int
	QuadratureDegree  int
	ProcLimit         int
	Verbose           bool
}

func DefaultConfig() Config {
	return Config{
		MuRel:             0.2,
		Dt:                0.01,
		FinalTime:         250 * 0.01,
		AbsoluteTolerance: 1.e-12,
		RelativeTolerance: 1.e-6,
		MaxIterations:     10,
		VelocityElement:   DG2D.BDM,
		PolynomialOrder:   1,
		QuadratureDegree:  2,
	}
}

type ControllerState uint8

const (
	Idle ControllerState = iota
	Stepping
	Done
	Failed
)

func (cs ControllerState) String() string {
	switch cs {
	case Idle:
		return "Idle"
	case Stepping:
		return "Stepping"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	}
	return fmt.Sprintf("ControllerState(%d)", uint8(cs))
}

type RunSummary struct {
	Steps            int
	FinalTime        float64
	NewtonIterations int
	Elapsed          time.Duration
}

type TwoPhase struct {
	Config    Config
	Disc      *DG2D.Discretization
	State     *FieldState
	Assembler *Assembler
	Newton    *NonlinearSolver.Newton
	Status    ControllerState
	Step      int     // Converged steps
	Time      float64 // Time of the last converged step
}

func NewTwoPhase(cfg Config, mesh *geometry2D.TriMesh, kinv InversePermeability, bcs BoundaryConditions,
	linear LinearSolver.Solver) (tp *TwoPhase, err error) {
	var (
		coef Coefficients
		d    *DG2D.Discretization
	)
	if coef, err = NewCoefficients(cfg.MuRel); err != nil {
		return
	}
	if !(cfg.FinalTime >= 0) || math.IsInf(cfg.FinalTime, 0) {
		err = fmt.Errorf("final time must be non-negative and finite, have %g", cfg.FinalTime)
		return
	}
	if cfg.MaxIterations < 0 {
		err = fmt.Errorf("maximum Newton iterations must be non-negative, have %d", cfg.MaxIterations)
		return
	}
	if d, err = DG2D.NewDiscretization(mesh, cfg.VelocityElement, cfg.PolynomialOrder, cfg.QuadratureDegree); err != nil {
		return
	}
	if linear == nil {
		linear = LinearSolver.NewSparse()
	}
	tp = &TwoPhase{
		Config: cfg,
		Disc:   d,
		State:  NewFieldState(d),
		Newton: NonlinearSolver.NewNewton(cfg.AbsoluteTolerance, cfg.RelativeTolerance, cfg.MaxIterations, linear),
	}
	tp.Newton.Verbose = cfg.Verbose
	if tp.Assembler, err = NewAssembler(d, coef, cfg.Dt, kinv, bcs, tp.State, cfg.ProcLimit); err != nil {
		return nil, err
	}
	return
}

// NumSteps is the number of steps needed to reach the final time
func (tp *TwoPhase) NumSteps() int {
	dt := tp.Config.Dt
	return int(math.Ceil(tp.Config.FinalTime/dt - 1.e-9))
}

func (tp *TwoPhase) finished() bool {
	return tp.Time >= tp.Config.FinalTime-1.e-9*tp.Config.Dt
}

// Advance takes one step from the last converged state. On failure the state is restored and the
// controller is Failed.
func (tp *TwoPhase) Advance() (err error) {
	switch tp.Status {
	case Failed:
		return fmt.Errorf("controller failed at step %d, time %8.5f", tp.Step, tp.Time)
	case Done:
		return fmt.Errorf("controller reached final time %8.5f", tp.Time)
	}
	tp.Status = Stepping
	tp.State.Snapshot()
	step := tp.Step + 1
	if err = tp.Newton.Solve(tp.Assembler, tp.State.U); err != nil {
		tp.State.Restore()
		tp.Status = Failed
		return fmt.Errorf("step %d, time %8.5f: %w", step, float64(step)*tp.Config.Dt, err)
	}
	tp.Step = step
	tp.Time = float64(step) * tp.Config.Dt
	if tp.finished() {
		tp.Status = Done
	}
	return
}

// Run steps until the final time, handing every converged state to the sink
func (tp *TwoPhase) Run(sink StateSink) (rs RunSummary, err error) {
	start := time.Now()
	defer func() {
		rs.Steps = tp.Step
		rs.FinalTime = tp.Time
		rs.Elapsed = time.Since(start)
	}()
	if tp.finished() {
		tp.Status = Done
		return
	}
	for tp.Status != Done {
		if err = tp.Advance(); err != nil {
			return
		}
		rs.NewtonIterations += tp.Newton.LastSolve.Iterations
		if sink != nil {
			if err = sink.Receive(tp.Step, tp.Time, tp.State); err != nil {
				tp.Status = Failed
				err = fmt.Errorf("state sink at step %d: %w", tp.Step, err)
				return
			}
		}
	}
	return
}

func (tp *TwoPhase) PrintInitialization() {
	var (
		mesh = tp.Disc.Mesh
		lay  = tp.Disc.Layout
	)
	fmt.Printf("Two phase Darcy flow in 2 Dimensions\n")
	fmt.Printf("Using %d go routines in parallel\n", tp.Assembler.ParallelDegree())
	fmt.Printf("Elements: %s order %d / DG%d, Num Elements K = %d, Num Facets = %d\n",
		tp.Config.VelocityElement, tp.Config.PolynomialOrder, tp.Config.PolynomialOrder-1,
		mesh.NumCells(), mesh.NumFacets())
	fmt.Printf("Unknowns: velocity %d, pressure %d, saturation %d, total %d\n",
		lay.NVelocity, lay.NPressure, lay.NSaturation, lay.Size())
	fmt.Printf("mu_rel = %8.5f, dt = %8.5f, Solving until finaltime = %8.5f (%d steps)\n",
		tp.Config.MuRel, tp.Config.Dt, tp.Config.FinalTime, tp.NumSteps())
	fmt.Printf("Coefficients at the midpoint saturation (s0+s)/2, upwinding with the previous velocity\n")
	fmt.Printf("Newton: atol = %8.2e, rtol = %8.2e, max iterations = %d\n\n",
		tp.Config.AbsoluteTolerance, tp.Config.RelativeTolerance, tp.Config.MaxIterations)
}

func (tp *TwoPhase) PrintFinal(rs RunSummary) {
	if rs.Steps == 0 {
		fmt.Printf("\nNo steps taken\n")
		return
	}
	rate := float64(rs.Elapsed.Microseconds()) / float64(tp.Disc.Mesh.NumCells()*rs.Steps)
	fmt.Printf("\nRate of execution = %8.5f us/(element*iteration) over %d iterations, %d Newton solves\n",
		rate, rs.Steps, rs.NewtonIterations)
}
