package TwoPhase2D

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfdali/two-phase-flow/DG2D"
	"github.com/mfdali/two-phase-flow/LinearSolver"
	"github.com/mfdali/two-phase-flow/NonlinearSolver"
	"github.com/mfdali/two-phase-flow/geometry2D"
)

func newTestTwoPhase(t *testing.T, n int, cfg Config, kinv InversePermeability, bcs BoundaryConditions,
	linear LinearSolver.Solver) *TwoPhase {
	mesh, err := geometry2D.NewUnitSquareMesh(n)
	require.NoError(t, err)
	tp, err := NewTwoPhase(cfg, mesh, kinv, bcs, linear)
	require.NoError(t, err)
	return tp
}

func TestUnitSquareRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProcLimit = 2
	tp := newTestTwoPhase(t, 6, cfg, ChannelPermeability(), DefaultBoundaryConditions(), LinearSolver.NewSparse())
	assert.Equal(t, 250, tp.NumSteps())
	assert.Equal(t, Idle, tp.Status)
	var (
		calls   int
		lastT   float64
		samples bytes.Buffer
		sampler = NewSaturationSampler(&samples, SamplePointsAlongY(0, 1, 0.5, 21))
	)
	sink := MultiSink{
		SinkFunc(func(step int, time float64, state *FieldState) error {
			calls++
			assert.Equal(t, calls, step)
			assert.InDelta(t, float64(step)*cfg.Dt, time, 1.e-14)
			assert.True(t, time > lastT)
			lastT = time
			sMin, sMax := state.SaturationRange()
			assert.True(t, sMin >= -1.e-6, "step %d: saturation %g below 0", step, sMin)
			assert.True(t, sMax <= 1+1.e-6, "step %d: saturation %g above 1", step, sMax)
			return nil
		}),
		sampler,
	}
	rs, err := tp.Run(sink)
	require.NoError(t, err)
	assert.Equal(t, Done, tp.Status)
	assert.Equal(t, 250, rs.Steps)
	assert.Equal(t, 250, calls)
	assert.InDelta(t, 2.5, rs.FinalTime, 1.e-12)
	assert.True(t, rs.NewtonIterations > 0)
	// Water has entered through the left side
	s, found := tp.State.SaturationAt(0.01, 0.5)
	require.True(t, found)
	assert.True(t, s > 0.1)
	// Pressure follows the imposed gradient
	pLeft, _ := tp.State.PressureAt(0.05, 0.5)
	pRight, _ := tp.State.PressureAt(0.95, 0.5)
	assert.True(t, pLeft > pRight)
	u, found := tp.State.VelocityAt(0.5, 0.5)
	require.True(t, found)
	assert.True(t, u[0] > 0)
	// One sampled line per step, 21 values each
	lines := strings.Split(strings.TrimSpace(samples.String()), "\n")
	require.Equal(t, 250, len(lines))
	assert.Equal(t, 21, len(strings.Split(lines[249], ",")))
	// Further steps are refused
	assert.Error(t, tp.Advance())
}

func TestZeroInputIdempotence(t *testing.T) {
	zero := BoundaryConditions{
		Pressure:         LinearPressure(0, 0, 0),
		InflowSaturation: LeftInflow(1.e-14, 0),
	}
	cfg := DefaultConfig()
	cfg.FinalTime = 3 * cfg.Dt
	tp := newTestTwoPhase(t, 3, cfg, ChannelPermeability(), zero, nil)
	rs, err := tp.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, rs.Steps)
	assert.Equal(t, 0, rs.NewtonIterations)
	assert.Equal(t, 0, tp.Newton.LastSolve.Iterations)
	for _, u := range tp.State.U {
		assert.Equal(t, 0., u)
	}
}

func TestSingularPermeability(t *testing.T) {
	for _, linear := range []LinearSolver.Solver{nil, LinearSolver.NewBanded(), LinearSolver.NewDense()} {
		cfg := DefaultConfig()
		tp := newTestTwoPhase(t, 3, cfg, IsotropicInversePermeability(0), DefaultBoundaryConditions(), linear)
		var calls int
		_, err := tp.Run(SinkFunc(func(int, float64, *FieldState) error {
			calls++
			return nil
		}))
		assert.True(t, errors.Is(err, LinearSolver.ErrLinearSolveFailure), "%v", err)
		assert.Equal(t, Failed, tp.Status)
		assert.Equal(t, 0, calls)
		assert.Equal(t, 0, tp.Step)
		// State is restored to the last converged state
		for i, u := range tp.State.U {
			assert.Equal(t, tp.State.U0[i], u)
		}
		assert.Error(t, tp.Advance())
	}
}

func TestNewtonBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 0
	tp := newTestTwoPhase(t, 3, cfg, ChannelPermeability(), DefaultBoundaryConditions(), nil)
	_, err := tp.Run(nil)
	assert.True(t, errors.Is(err, NonlinearSolver.ErrNewtonDivergence))
	assert.Equal(t, Failed, tp.Status)
	for _, u := range tp.State.U {
		assert.Equal(t, 0., u)
	}
}

func TestSinkFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FinalTime = 10 * cfg.Dt
	tp := newTestTwoPhase(t, 3, cfg, ChannelPermeability(), DefaultBoundaryConditions(), nil)
	stop := errors.New("disk full")
	rs, err := tp.Run(SinkFunc(func(step int, _ float64, _ *FieldState) error {
		if step == 2 {
			return stop
		}
		return nil
	}))
	assert.True(t, errors.Is(err, stop))
	assert.Equal(t, Failed, tp.Status)
	assert.Equal(t, 2, rs.Steps)
}

func TestSinks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FinalTime = 4 * cfg.Dt
	tp := newTestTwoPhase(t, 4, cfg, ChannelPermeability(), DefaultBoundaryConditions(), nil)
	var (
		console bytes.Buffer
		cs      = NewConsoleSink(2, tp.Newton)
	)
	cs.Out = &console
	_, err := tp.Run(cs)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(console.String()), "\n")
	// Header, step 1, then every second step
	require.Equal(t, 4, len(lines))
	assert.True(t, strings.Contains(lines[0], "newton"))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[3]), "4"))
	{
		pts := SamplePointsAlongY(0, 1, 0.5, 21)
		assert.Equal(t, [2]float64{0, 0.5}, pts[0])
		assert.InDelta(t, 0.05, pts[1][0], 1.e-15)
		assert.Equal(t, [2]float64{1, 0.5}, pts[20])
		var buf bytes.Buffer
		ss := NewSaturationSampler(&buf, [][2]float64{{2, 0.5}})
		assert.Error(t, ss.Receive(1, 0.01, tp.State))
		ss = NewSaturationSampler(&buf, [][2]float64{{0.2, 0.5}, {0.9, 0.5}})
		tp.State.Saturation()[0] = 0.123456
		require.NoError(t, ss.Receive(1, 0.01, tp.State))
		assert.Equal(t, 2, len(strings.Split(strings.TrimSpace(buf.String()), ",")))
	}
	assert.Equal(t, "Done", Done.String())
}

func TestJacobianSolvers(t *testing.T) {
	as := newTestAssembler(t, 32, DG2D.BDM, ChannelPermeability(), DefaultBoundaryConditions(), 0)
	fillState(as)
	var (
		n  = as.Size()
		L  = make([]float64, n)
		J  = as.NewJacobian()
		xs = make([]float64, n)
		xb = make([]float64, n)
		r  = make([]float64, n)
	)
	require.NoError(t, as.Assemble(as.State.U, L, J))
	ss := LinearSolver.NewSparse()
	require.NoError(t, ss.Solve(J, L, xs))
	require.NoError(t, LinearSolver.NewBanded().Solve(J, L, xb))
	var xMax, rMax, aMax float64
	for i := range xb {
		xMax = math.Max(xMax, math.Abs(xb[i]))
	}
	for _, v := range J.Data() {
		aMax = math.Max(aMax, math.Abs(v))
	}
	assert.InDeltaSlice(t, xb, xs, 1.e-6*xMax)
	// Backward stable, the residual is near round off of the matrix times the solution
	J.MulVec(r, xs)
	for i := range r {
		rMax = math.Max(rMax, math.Abs(r[i]-L[i]))
	}
	assert.Less(t, rMax, 1.e-10*aMax*xMax)
	// The factors of the dissected Jacobian are far smaller than the band of the profile ordering
	kl, ku := LinearSolver.PermutedBandwidths(J, LinearSolver.ReverseCuthillMcKee(J))
	assert.Less(t, 2*ss.FactorNNZ(), n*(2*kl+ku+1), "factor entries %d, band storage %d", ss.FactorNNZ(), n*(2*kl+ku+1))
}

func TestDefaultResolutionTiming(t *testing.T) {
	if testing.Short() {
		t.Skip("steps the 64x64 channel problem")
	}
	cfg := DefaultConfig()
	cfg.FinalTime = 2 * cfg.Dt
	tp := newTestTwoPhase(t, 64, cfg, ChannelPermeability(), DefaultBoundaryConditions(), nil)
	assert.Equal(t, 41216, tp.Assembler.Size())
	rs, err := tp.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, rs.Steps)
	perStep := rs.Elapsed / time.Duration(rs.Steps)
	t.Logf("64x64: %d steps, %d Newton solves, %v per step", rs.Steps, rs.NewtonIterations, perStep)
	// The 250 steps of the default run complete within the hour
	assert.Less(t, perStep, 14*time.Second)
}
