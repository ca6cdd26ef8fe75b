package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/arloliu/go-manip/command"
)

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive command prompt",
		Long: `Start an interactive prompt accepting the controller commands:

  numDevices, numManips, deviceName <n>, deviceSerial <n>, initialize,
  uninitialize, getPosition <slot> <drive>, changePosition <slot> <drive> <x> <y> <z>,
  help, stats, exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "manip> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("failed to create readline: %w", err)
			}
			defer rl.Close()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Logs and diagnostics go through readline so they don't garble the prompt.
			a, err := newAppFromConfig(cfg, rl.Stdout(), rl.Stderr())
			if err != nil {
				return err
			}
			defer a.close()

			sh := &shell{app: a, in: rl, out: rl.Stdout()}
			sh.run(cmd.Context())

			return nil
		},
	}
}

// lineReader is the part of readline.Instance the shell loop uses.
type lineReader interface {
	Readline() (string, error)
}

type shell struct {
	app *app
	in  lineReader
	out io.Writer
}

func (s *shell) run(ctx context.Context) {
	fmt.Fprintf(s.out, "%s version %s. Type 'help' for commands, 'exit' to quit.\n", command.Name, command.Version)

	for {
		if ctx.Err() != nil {
			return
		}

		line, err := s.in.Readline()
		if err != nil {
			// EOF or interrupt
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")

			return
		}

		if !s.exec(ctx, line) {
			return
		}
	}
}

// exec runs one input line and reports whether the shell should keep going.
func (s *shell) exec(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	name, rest := parts[0], parts[1:]

	switch strings.ToLower(name) {
	case "exit", "quit":
		return false
	case "stats":
		s.printStats()
		return true
	}

	args := make([]float64, len(rest))
	for i, r := range rest {
		v, err := strconv.ParseFloat(r, 64)
		if err != nil {
			fmt.Fprintf(s.out, "Error. argument %d (%q) is not a number\n", i+1, r)
			return true
		}
		args[i] = v
	}

	res, err := s.app.dispatcher.Exec(ctx, name, args...)
	if err != nil {
		s.app.log.Debug("manipctl: command failed", "command", name, "error", err)
		if res.Text == command.ErrorText {
			fmt.Fprintln(s.out, res)
		}

		return true
	}

	if res.Text != "" || len(res.Values) > 0 {
		fmt.Fprintln(s.out, res)
	}

	return true
}

func (s *shell) printStats() {
	reg := s.app.reg
	m := reg.Metrics()
	em := reg.EngineMetrics()

	fmt.Fprintf(s.out, "state:           %s\n", reg.State())
	if id := reg.SessionID(); id != "" {
		fmt.Fprintf(s.out, "session:         %s\n", id)
	}
	fmt.Fprintf(s.out, "manipulators:    %d\n", m.Manipulators.Load())
	for _, h := range reg.Handles() {
		fmt.Fprintf(s.out, "  %s\n", h)
	}
	fmt.Fprintf(s.out, "opened/failed:   %d/%d\n", m.OpenCount.Load(), m.OpenFailCount.Load())
	fmt.Fprintf(s.out, "setup warnings:  %d\n", m.SetupWarnCount.Load())
	fmt.Fprintf(s.out, "queries:         %d\n", m.QueryCount.Load())
	fmt.Fprintf(s.out, "moves:           %d (%d rejected)\n", m.MoveCount.Load(), m.RejectedMoveCount.Load())
	fmt.Fprintf(s.out, "protocol errors: %d\n", m.ProtocolErrCount.Load())
	fmt.Fprintf(s.out, "bytes sent/recv: %d/%d\n", em.BytesSent.Load(), em.BytesRecv.Load())
}
