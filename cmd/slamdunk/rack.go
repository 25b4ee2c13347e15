package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/playmatatu/slamdunk/internal/game"
)

var (
	flagRackBalls   int
	flagRackSpacing float64
)

var rackCmd = &cobra.Command{
	Use:   "rack",
	Short: "Print the rack layout",
	Long:  `Shows where the cue ball and each target ball are placed when a table is racked.`,
	RunE:  runRack,
}

func init() {
	rackCmd.Flags().IntVar(&flagRackBalls, "balls", game.DefaultTargetBalls, "Number of target balls")
	rackCmd.Flags().Float64Var(&flagRackSpacing, "spacing", game.DefaultRackSpacing, "Distance between neighbouring balls")
}

func runRack(cmd *cobra.Command, args []string) error {
	opts := game.DefaultTableOptions()
	opts.TargetBalls = flagRackBalls
	opts.RackSpacing = flagRackSpacing
	table, err := game.NewTable(opts)
	if err != nil {
		return err
	}

	cue := table.CuePosition()
	fmt.Printf("  %-10s  %8s  %8s  %8s  %8s\n", "Ball", "X", "Z", "dX", "dZ")
	fmt.Printf("  %-10s  %8s  %8s  %8s  %8s\n", "----", "-", "-", "--", "--")
	fmt.Printf("  %-10s  %8.4f  %8.4f\n", game.CueBallID, cue.X, cue.Z)
	for i, pos := range table.RackPositions() {
		dx, dz := game.RackOffset(i+1, opts.RackSpacing)
		fmt.Printf("  %-10s  %8.4f  %8.4f  %8.4f  %8.4f\n", game.TargetBallID(i+1), pos.X, pos.Z, dx, dz)
	}
	return nil
}
