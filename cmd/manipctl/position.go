package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-manip/roe"
)

func parseInts(names []string, args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, s := range args {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: must be an integer", names[i], s)
		}
		out[i] = n
	}

	return out, nil
}

func newGetCmd() *cobra.Command {
	var micrometers bool

	cmd := &cobra.Command{
		Use:   "get <slot> <drive>",
		Short: "Print the position of one drive",
		Long: `Initialize the attached manipulators, read the position of <drive> (1 or 2)
on the manipulator in table slot <slot>, and release the devices again.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nums, err := parseInts([]string{"slot", "drive"}, args)
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if _, err := a.reg.Initialize(cmd.Context()); err != nil {
				return err
			}

			pos, err := a.dispatcher.GetPosition(cmd.Context(), nums[0], nums[1])
			if err != nil {
				return err
			}

			printPosition(cmd, pos, micrometers)

			return nil
		},
	}
	cmd.Flags().BoolVar(&micrometers, "um", false, "print micrometres instead of steps")

	return cmd
}

func newMoveCmd() *cobra.Command {
	var micrometers bool

	cmd := &cobra.Command{
		Use:   "move <slot> <drive> <x> <y> <z>",
		Short: "Move one drive to an absolute position",
		Long: `Initialize the attached manipulators and command <drive> (1 or 2) on the
manipulator in table slot <slot> to move to (x, y, z). The controller does not
report completion; run "manipctl get" afterwards to confirm the position.`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			nums, err := parseInts([]string{"slot", "drive"}, args[:2])
			if err != nil {
				return err
			}

			var target roe.Position
			if micrometers {
				coords := make([]float64, 3)
				for i, s := range args[2:] {
					coords[i], err = strconv.ParseFloat(s, 64)
					if err != nil || math.IsNaN(coords[i]) || math.IsInf(coords[i], 0) {
						return fmt.Errorf("invalid %s %q: must be a finite number", roe.Axes[i], s)
					}
				}
				target = roe.PositionFromMicrometers(coords[0], coords[1], coords[2])
			} else {
				xyz, err := parseInts([]string{"x", "y", "z"}, args[2:])
				if err != nil {
					return err
				}
				target = roe.Position{X: xyz[0], Y: xyz[1], Z: xyz[2]}
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if _, err := a.reg.Initialize(cmd.Context()); err != nil {
				return err
			}

			if err := a.dispatcher.ChangePosition(cmd.Context(), nums[0], nums[1], target.X, target.Y, target.Z); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "moving slot %d %s to %s\n", nums[0], roe.Drive(nums[1]), target)

			return nil
		},
	}
	cmd.Flags().BoolVar(&micrometers, "um", false, "coordinates are micrometres instead of steps")

	return cmd
}

func printPosition(cmd *cobra.Command, pos roe.Position, micrometers bool) {
	if micrometers {
		x, y, z := pos.Micrometers()
		fmt.Fprintf(cmd.OutOrStdout(), "%.4f %.4f %.4f\n", x, y, z)

		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d %d %d\n", pos.X, pos.Y, pos.Z)
}
