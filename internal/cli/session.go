package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gradepro-api/internal/models"
	"github.com/noah-isme/gradepro-api/internal/repository"
	"github.com/noah-isme/gradepro-api/internal/service"
	"github.com/noah-isme/gradepro-api/pkg/database"
)

func newSessionCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect the planning session saved in the local database",
	}
	cmd.AddCommand(
		newSessionShowCommand(a),
		newSessionImportCommand(a),
		newSessionExportCommand(a),
		newSessionClearCommand(a),
	)
	return cmd
}

// openSessions opens the SQLite file named by --db. The returned func closes it.
func (a *app) openSessions(ctx context.Context) (*service.SessionService, func(), error) {
	db, err := database.NewSQLite(a.dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	repo, err := repository.NewSQLiteSessionRepository(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return service.NewSessionService(repo, a.solver, nil, a.logger), func() { _ = db.Close() }, nil
}

func newSessionShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved planning session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			sessions, closeDB, err := a.openSessions(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			session, err := sessions.Load(ctx, service.LocalSessionKey)
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return a.printJSON(cmd.OutOrStdout(), session)
			}
			return printSession(cmd, a, session)
		},
	}
}

func printSession(cmd *cobra.Command, a *app, session *models.PlanningSession) error {
	out := cmd.OutOrStdout()
	if s := session.Student; s != nil {
		fmt.Fprintf(out, "%s (%s), semester %d, current average %.2f", s.Name, s.RollNumber, s.Semester, s.CurrentAverage)
		if s.TargetAverage != nil {
			fmt.Fprintf(out, ", target %.2f", *s.TargetAverage)
		}
		fmt.Fprintln(out)
	}
	if !session.UpdatedAt.IsZero() {
		fmt.Fprintf(out, "Updated %s\n", session.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}

	if len(session.Subjects) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "SUBJECT\tCREDITS\tTARGET\tMIN %")
		for _, t := range session.Subjects {
			fmt.Fprintf(w, "%s\t%d\t%s\t%.0f\n", t.SubjectName, t.CreditWeight, t.RequiredGrade, t.RequiredMinPercentage)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(session.Progress) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "SUBJECT\tTARGET\tFINAL NEEDED\tACHIEVABLE")
		for _, p := range session.Progress {
			result := p.Result
			if result == nil {
				solved := a.solver.Solve(p)
				result = &solved
			}
			achievable := "no"
			if result.Achievable {
				achievable = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%.0f / %.0f\t%s\n", p.SubjectName, p.TargetGrade, result.RequiredMarks, p.FinalMax, achievable)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func newSessionImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the saved planning session with a JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}

			ctx := context.Background()
			sessions, closeDB, err := a.openSessions(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			session, err := sessions.Save(ctx, service.LocalSessionKey, raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved session with %d subjects and %d progress entries\n", len(session.Subjects), len(session.Progress))
			return nil
		},
	}
}

func newSessionExportCommand(a *app) *cobra.Command {
	var format, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the saved planning session as CSV or PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			sessions, closeDB, err := a.openSessions(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			doc, err := sessions.Export(ctx, service.LocalSessionKey, format)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = doc.Filename
			}
			if outPath == "-" {
				_, err = cmd.OutOrStdout().Write(doc.Data)
				return err
			}
			if err := os.WriteFile(outPath, doc.Data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "Export format: csv or pdf")
	cmd.Flags().StringVar(&outPath, "out", "", `Destination file, "-" for stdout (defaults to grade-plan.<format>)`)
	return cmd
}

func newSessionClearCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved planning session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			sessions, closeDB, err := a.openSessions(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := sessions.Delete(ctx, service.LocalSessionKey); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session cleared")
			return nil
		},
	}
}
