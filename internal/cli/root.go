// Package cli implements the gradectl command line tool.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/gradepro-api/internal/grading"
	"github.com/noah-isme/gradepro-api/internal/service"
	appErrors "github.com/noah-isme/gradepro-api/pkg/errors"
	"github.com/noah-isme/gradepro-api/pkg/logger"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// app holds the services shared by every subcommand. It is built once the persistent
// flags are parsed.
type app struct {
	logger     *zap.Logger
	solver     *grading.Solver
	calculator *service.CalculatorService
	advice     *service.AdviceService
	output     string
	dbPath     string
}

// NewRootCommand assembles the gradectl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	var (
		logLevel    string
		historyFile string
	)

	root := &cobra.Command{
		Use:           "gradectl",
		Short:         "Plan the grades needed to reach a target average",
		Long:          "gradectl suggests per-subject target grades and computes the final-exam marks needed to reach them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.output != outputTable && a.output != outputJSON {
				return fmt.Errorf("unknown output %q (use %s or %s)", a.output, outputTable, outputJSON)
			}
			log, err := logger.NewConsole(logLevel)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			history, err := service.LoadHistory(historyFile, log)
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			validate := service.NewValidator()
			a.logger = log
			a.solver = grading.NewSolver(history)
			a.calculator = service.NewCalculatorService(a.solver, validate, nil, nil, log, 0)
			a.advice = service.NewAdviceService(validate, log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.output, "output", "o", outputTable, "Output format: table or json")
	flags.StringVar(&logLevel, "log-level", "warn", "Log level written to stderr")
	flags.StringVar(&historyFile, "history", "", "Path to a JSON historical dataset (defaults to the built-in table)")
	flags.StringVar(&a.dbPath, "db", "./gradepro.db", "Path to the SQLite file holding the saved session")

	root.AddCommand(
		newScaleCommand(a),
		newTargetsCommand(a),
		newSolveCommand(a),
		newAdviceCommand(a),
		newSessionCommand(a),
	)
	return root
}

// Execute runs gradectl with os.Args and prints any failure to stderr.
func Execute(stderr io.Writer) int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, FormatError(err))
		return 1
	}
	return 0
}

// FormatError renders err with any per-field validation details.
func FormatError(err error) string {
	var appErr *appErrors.Error
	if !errors.As(err, &appErr) {
		return "error: " + err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "error: %s", appErr.Message)
	if details, ok := appErr.Details.(map[string]string); ok {
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  %s: %s", k, details[k])
		}
	}
	return b.String()
}

func (a *app) printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
