/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mfdali/two-phase-flow/DG2D"
	"github.com/mfdali/two-phase-flow/InputParameters"
	"github.com/mfdali/two-phase-flow/LinearSolver"
	"github.com/mfdali/two-phase-flow/geometry2D"
	"github.com/mfdali/two-phase-flow/model_problems/TwoPhase2D"
	"github.com/mfdali/two-phase-flow/readfiles"
	"github.com/mfdali/two-phase-flow/types"
	"github.com/mfdali/two-phase-flow/utils"
)

type ModelTwoPhase struct {
	GridFile   string
	ICFile     string
	SampleFile string
	ProcLimit  int
	Profile    bool
	Progress   bool
	Verbose    bool
}

const exampleFile = `
########################################
Title: "Water flooding a channel"
MuRel: 0.2
Dt: 0.01
FinalTime: 2.5
VelocityElement: BDM # or RT
PolynomialOrder: 1
MeshResolution: 64 # used without a grid file
LinearSolver: sparse # or banded, dense
Permeability: channel # or constant, with PermeabilityValue
Pressure:
  Constant: 1
  DPDX: -1
InflowSaturation:
  left: 1
########################################
`

// TwoPhaseCmd represents the 2P command
var TwoPhaseCmd = &cobra.Command{
	Use:   "2P",
	Short: "Two phase Darcy flow, on a unit square or a grid file",
	Long: `
Water injected through the inflow boundary displaces oil, driven by the boundary pressure.
Without an input file the channel problem is run with default parameters, an example file is:
` + exampleFile,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
			ip  *InputParameters.InputParameters2P
		)
		mtp := &ModelTwoPhase{
			GridFile:   viper.GetString("gridFile"),
			ICFile:     viper.GetString("inputConditionsFile"),
			SampleFile: viper.GetString("sampleFile"),
			ProcLimit:  viper.GetInt("procLimit"),
			Profile:    viper.GetBool("profile"),
			Progress:   viper.GetBool("progress"),
			Verbose:    viper.GetBool("verbose"),
		}
		if ip, err = processInputTwoPhase(mtp); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			fmt.Printf("Example File:%s\n", exampleFile)
			os.Exit(1)
		}
		if err = runProfiled(mtp, ip); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(TwoPhaseCmd)
	TwoPhaseCmd.Flags().StringP("gridFile", "F", "", "Grid file to read in SU2 (.su2) format, a unit square is used if absent")
	TwoPhaseCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- MuRel\n\t- Dt\n\t- FinalTime")
	TwoPhaseCmd.Flags().StringP("sampleFile", "s", "", "file to append one line of sampled saturations per step")
	TwoPhaseCmd.Flags().IntP("procLimit", "p", 0, "maximum number of go routines used in assembly, 0 uses all CPUs")
	TwoPhaseCmd.Flags().Bool("profile", false, "write a CPU profile of the run")
	TwoPhaseCmd.Flags().BoolP("progress", "g", false, "display a progress bar in place of the step table")
	TwoPhaseCmd.Flags().BoolP("verbose", "v", false, "print every Newton iteration")
	if err := viper.BindPFlags(TwoPhaseCmd.Flags()); err != nil {
		panic(err)
	}
}

func processInputTwoPhase(mtp *ModelTwoPhase) (ip *InputParameters.InputParameters2P, err error) {
	ip = InputParameters.NewInputParameters2P()
	if len(mtp.ICFile) == 0 {
		return ip, ip.Validate()
	}
	var data []byte
	if data, err = os.ReadFile(mtp.ICFile); err != nil {
		return nil, fmt.Errorf("unable to read input file %s: %w", mtp.ICFile, err)
	}
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("input file %s: %w", mtp.ICFile, err)
	}
	return
}

func runProfiled(mtp *ModelTwoPhase, ip *InputParameters.InputParameters2P) error {
	if mtp.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}
	return RunTwoPhase(mtp, ip)
}

// ReadMesh reads the grid file or builds the unit square mesh, tags maps grid marker labels to boundary tags
func ReadMesh(mtp *ModelTwoPhase, ip *InputParameters.InputParameters2P) (mesh *geometry2D.TriMesh,
	tags map[string]types.BCTAG, err error) {
	if len(mtp.GridFile) == 0 {
		mesh, err = geometry2D.NewUnitSquareMesh(ip.MeshResolution)
		return
	}
	var grid *readfiles.SU2Grid
	if grid, err = readfiles.ReadSU2(mtp.GridFile, mtp.Verbose); err != nil {
		return
	}
	return grid.TriMesh()
}

func NewBoundaryConditions(ip *InputParameters.InputParameters2P, mesh *geometry2D.TriMesh,
	tags map[string]types.BCTAG) (bcs TwoPhase2D.BoundaryConditions, err error) {
	bcs = TwoPhase2D.DefaultBoundaryConditions()
	bcs.Pressure = TwoPhase2D.LinearPressure(ip.Pressure.Constant, ip.Pressure.DPDX, ip.Pressure.DPDY)
	if len(ip.InflowSaturation) == 0 {
		return
	}
	values := make(map[types.BCTAG]float64, len(ip.InflowSaturation))
	for label, s := range ip.InflowSaturation {
		tag, ok := tags[label]
		if !ok {
			if tag, err = types.NewBCTAG(label); err != nil {
				return
			}
		}
		values[tag] = s
	}
	bcs.InflowSaturation = TwoPhase2D.TaggedInflow(mesh, values)
	return
}

func NewTwoPhaseModel(mtp *ModelTwoPhase, ip *InputParameters.InputParameters2P) (tp *TwoPhase2D.TwoPhase, err error) {
	var (
		mesh   *geometry2D.TriMesh
		tags   map[string]types.BCTAG
		vf     DG2D.VelocityFamily
		kinv   TwoPhase2D.InversePermeability
		linear LinearSolver.Solver
		bcs    TwoPhase2D.BoundaryConditions
	)
	if mesh, tags, err = ReadMesh(mtp, ip); err != nil {
		return
	}
	if vf, err = DG2D.NewVelocityFamily(ip.VelocityElement); err != nil {
		return
	}
	if kinv, err = TwoPhase2D.NewInversePermeability(ip.Permeability, ip.PermeabilityValue); err != nil {
		return
	}
	if linear, err = LinearSolver.NewSolver(ip.LinearSolver); err != nil {
		return
	}
	if bcs, err = NewBoundaryConditions(ip, mesh, tags); err != nil {
		return
	}
	cfg := TwoPhase2D.Config{
		MuRel:             ip.MuRel,
		Dt:                ip.Dt,
		FinalTime:         ip.FinalTime,
		AbsoluteTolerance: ip.AbsoluteTolerance,
		RelativeTolerance: ip.RelativeTolerance,
		MaxIterations:     ip.MaxIterations,
		VelocityElement:   vf,
		PolynomialOrder:   ip.PolynomialOrder,
		QuadratureDegree:  ip.QuadratureDegree,
		ProcLimit:         mtp.ProcLimit,
		Verbose:           mtp.Verbose,
	}
	return TwoPhase2D.NewTwoPhase(cfg, mesh, kinv, bcs, linear)
}

func RunTwoPhase(mtp *ModelTwoPhase, ip *InputParameters.InputParameters2P) (err error) {
	var (
		tp    *TwoPhase2D.TwoPhase
		sinks TwoPhase2D.MultiSink
		rs    TwoPhase2D.RunSummary
	)
	ip.Print()
	if tp, err = NewTwoPhaseModel(mtp, ip); err != nil {
		return
	}
	tp.PrintInitialization()
	if mtp.Progress {
		ps := TwoPhase2D.NewProgressSink(tp.NumSteps(), ip.Dt)
		defer ps.Stop()
		sinks = append(sinks, ps)
	} else {
		sinks = append(sinks, TwoPhase2D.NewConsoleSink(ip.PrintEvery, tp.Newton))
	}
	if len(mtp.SampleFile) != 0 {
		var file *os.File
		if file, err = os.OpenFile(mtp.SampleFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err != nil {
			return fmt.Errorf("unable to open sample file %s: %w", mtp.SampleFile, err)
		}
		defer file.Close()
		lo, hi := tp.Disc.Mesh.BoundingBox()
		pts := TwoPhase2D.SamplePointsAlongY(lo[0], hi[0], 0.5*(lo[1]+hi[1]), 21)
		sinks = append(sinks, TwoPhase2D.NewSaturationSampler(file, pts))
	}
	rs, err = tp.Run(sinks)
	tp.PrintFinal(rs)
	fmt.Printf("%s\n", utils.GetMemUsage())
	return
}
