package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/playmatatu/slamdunk/internal/game"
	"github.com/playmatatu/slamdunk/internal/hostsim"
)

var (
	flagDX       float64
	flagDZ       float64
	flagRotation float64
	flagProfile  string
	flagTuning   string
	flagTargets  int
	flagStep     float64
	flagMaxSteps int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one shot on a simulated host",
	Long: `Racks a table, drags the cue by (dx, dz) in world axes and steps a
simulated host until every ball is at rest. The final snapshot and the event
log are printed as JSON.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().Float64Var(&flagDX, "dx", 0.2, "Drag along world X")
	simulateCmd.Flags().Float64Var(&flagDZ, "dz", 0, "Drag along world Z")
	simulateCmd.Flags().Float64Var(&flagRotation, "rotation", 0, "Table rotation about the vertical axis, radians")
	simulateCmd.Flags().StringVar(&flagProfile, "profile", game.ProfileCanonical, "Tuning profile (canonical, legacy)")
	simulateCmd.Flags().StringVar(&flagTuning, "tuning", "", "Path to a YAML tuning file (overrides --profile)")
	simulateCmd.Flags().IntVar(&flagTargets, "balls", game.DefaultTargetBalls, "Number of target balls")
	simulateCmd.Flags().Float64Var(&flagStep, "step", hostsim.DefaultStep, "Simulation time step")
	simulateCmd.Flags().IntVar(&flagMaxSteps, "max-steps", 20000, "Give up after this many steps")
}

type simulation struct {
	Shot        game.ShotResult       `json:"shot"`
	Steps       int                   `json:"steps"`
	Resolutions []game.Resolution     `json:"resolutions"`
	Events      []game.CollisionEvent `json:"events"`
	Final       game.TableSnapshot    `json:"final"`
}

func runSimulate(cmd *cobra.Command, args []string) error {
	tuning, err := game.LoadTuning(flagProfile, flagTuning)
	if err != nil {
		return err
	}

	opts := game.DefaultTableOptions()
	opts.TargetBalls = flagTargets

	logger := log.Default().WithPrefix("engine")
	engine, err := game.NewEngine(game.EngineOptions{Table: opts, Tuning: tuning, Logger: logger})
	if err != nil {
		return err
	}

	host := hostsim.New(engine, flagRotation, log.Default().WithPrefix("host"))
	shot, err := host.Shoot(flagDX, flagDZ)
	if err != nil {
		return err
	}
	if !shot.Applied {
		return fmt.Errorf("drag (%v, %v) has no horizontal length", flagDX, flagDZ)
	}

	runErr := host.Run(flagStep, flagMaxSteps)
	if runErr != nil {
		log.Warn("simulation stopped early", "error", runErr)
	}

	out := simulation{
		Shot:        shot,
		Steps:       host.Steps,
		Resolutions: host.Resolutions,
		Events:      engine.Events(),
		Final:       engine.Snapshot(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	return runErr
}
