package TwoPhase2D

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gosuri/uiprogress"

	"github.com/mfdali/two-phase-flow/NonlinearSolver"
)

// StateSink receives every converged state, exactly once per step. An error stops the run.
type StateSink interface {
	Receive(step int, t float64, state *FieldState) error
}

type SinkFunc func(step int, t float64, state *FieldState) error

func (sf SinkFunc) Receive(step int, t float64, state *FieldState) error { return sf(step, t, state) }

// MultiSink hands each state to every sink in order, stopping at the first error
type MultiSink []StateSink

func (ms MultiSink) Receive(step int, t float64, state *FieldState) (err error) {
	for _, s := range ms {
		if s == nil {
			continue
		}
		if err = s.Receive(step, t, state); err != nil {
			return
		}
	}
	return
}

// ConsoleSink prints a table row of the Newton statistics and saturation bounds every Every steps
type ConsoleSink struct {
	Every  int
	Newton *NonlinearSolver.Newton
	Out    io.Writer
	header bool
}

func NewConsoleSink(every int, newton *NonlinearSolver.Newton) *ConsoleSink {
	if every < 1 {
		every = 1
	}
	return &ConsoleSink{Every: every, Newton: newton, Out: os.Stdout}
}

func (cs *ConsoleSink) Receive(step int, t float64, state *FieldState) error {
	if !cs.header {
		fmt.Fprintf(cs.Out, "    step    time  newton       Res0       Res1      s_min      s_max\n")
		cs.header = true
	}
	if step != 1 && step%cs.Every != 0 {
		return nil
	}
	var st NonlinearSolver.Stats
	if cs.Newton != nil {
		st = cs.Newton.LastSolve
	}
	sMin, sMax := state.SaturationRange()
	format := "%11.4e"
	fmt.Fprintf(cs.Out, "%8d%8.5f%8d", step, t, st.Iterations)
	for _, v := range []float64{st.InitialResidual, st.Residual, sMin, sMax} {
		fmt.Fprintf(cs.Out, format, v)
	}
	fmt.Fprintf(cs.Out, "\n")
	return nil
}

// ProgressSink drives a terminal progress bar over the steps of a run
type ProgressSink struct {
	progress *uiprogress.Progress
	bar      *uiprogress.Bar
}

func NewProgressSink(steps int, dt float64) (ps *ProgressSink) {
	ps = &ProgressSink{progress: uiprogress.New()}
	ps.bar = ps.progress.AddBar(steps).AppendCompleted().PrependElapsed()
	ps.bar.PrependFunc(func(b *uiprogress.Bar) string {
		return fmt.Sprintf("t = %8.5f", float64(b.Current())*dt)
	})
	ps.progress.Start()
	return
}

func (ps *ProgressSink) Receive(step int, t float64, state *FieldState) error {
	return ps.bar.Set(step)
}

func (ps *ProgressSink) Stop() { ps.progress.Stop() }

// SaturationSampler writes one comma separated line of point saturations per step
type SaturationSampler struct {
	Points [][2]float64
	w      io.Writer
}

// SamplePointsAlongY returns n equally spaced points from (x0, y) to (x1, y)
func SamplePointsAlongY(x0, x1, y float64, n int) (pts [][2]float64) {
	pts = make([][2]float64, n)
	for i := range pts {
		xi := x0
		if n > 1 {
			xi = x0 + (x1-x0)*float64(i)/float64(n-1)
		}
		pts[i] = [2]float64{xi, y}
	}
	return
}

func NewSaturationSampler(w io.Writer, points [][2]float64) *SaturationSampler {
	return &SaturationSampler{Points: points, w: w}
}

func (ss *SaturationSampler) Receive(step int, t float64, state *FieldState) (err error) {
	vals := make([]string, len(ss.Points))
	for i, p := range ss.Points {
		s, found := state.SaturationAt(p[0], p[1])
		if !found {
			return fmt.Errorf("sample point (%g,%g) is outside the mesh", p[0], p[1])
		}
		vals[i] = fmt.Sprintf("%.2g", s)
	}
	_, err = fmt.Fprintln(ss.w, strings.Join(vals, ","))
	return
}
