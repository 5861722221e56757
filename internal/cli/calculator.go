package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gradepro-api/internal/dto"
)

func newScaleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scale",
		Short: "Print the percentage grade scale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scale := a.calculator.GradeScale()
			if a.output == outputJSON {
				return a.printJSON(cmd.OutOrStdout(), scale)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "GRADE\tPOINTS\tMIN %")
			for _, entry := range scale {
				fmt.Fprintf(w, "%s\t%.0f\t%.0f\n", entry.Grade, entry.Points, entry.MinPercentage)
			}
			return w.Flush()
		},
	}
}

func newTargetsCommand(a *app) *cobra.Command {
	var (
		current  float64
		target   float64
		subjects []string
	)
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Suggest a target grade for every subject",
		Example: `  gradectl targets --current 7 --target 8 \
    --subject "Design and Analysis of Algorithms:4" --subject "Cloud Computing:3"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.DistributeTargetsRequest{CurrentAverage: current, TargetAverage: target}
			for _, raw := range subjects {
				subject, err := parseSubject(raw)
				if err != nil {
					return err
				}
				req.Subjects = append(req.Subjects, subject)
			}

			resp, _, err := a.calculator.DistributeTargets(context.Background(), req)
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return a.printJSON(cmd.OutOrStdout(), resp)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "SUBJECT\tCREDITS\tTARGET\tMIN %")
			for _, t := range resp.Targets {
				fmt.Fprintf(w, "%s\t%d\t%s\t%.0f\n", t.SubjectName, t.CreditWeight, t.RequiredGrade, t.RequiredMinPercentage)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nTotal credits: %d, target average: %.2f\n", resp.TotalCredits, resp.TargetAverage)
			return nil
		},
	}
	cmd.Flags().Float64Var(&current, "current", 0, "Current average on the 0-10 scale")
	cmd.Flags().Float64Var(&target, "target", 0, "Target average on the 0-10 scale")
	cmd.Flags().StringArrayVar(&subjects, "subject", nil, `Subject as "Name:credits" (repeatable)`)
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newSolveCommand(a *app) *cobra.Command {
	var (
		subject    string
		subjectID  string
		credits    int
		components []string
		finalMax   float64
		grade      string
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Compute the final-exam marks needed for a target grade",
		Example: `  gradectl solve --subject "Computer Networks" --grade A --final-max 40 \
    --component midterm=20/30 --component internal=20/30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.ProgressRequest{
				SubjectName:  subject,
				SubjectID:    subjectID,
				CreditWeight: credits,
				FinalMax:     finalMax,
				TargetGrade:  strings.ToUpper(strings.TrimSpace(grade)),
			}
			for _, raw := range components {
				component, err := parseComponent(raw)
				if err != nil {
					return err
				}
				req.Components = append(req.Components, component)
			}

			ctx := context.Background()
			check, err := a.calculator.CheckAchievability(ctx, req)
			if err != nil {
				return err
			}
			resp, _, err := a.calculator.SolveRequiredMarks(ctx, req)
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return a.printJSON(cmd.OutOrStdout(), resp)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s, target %s\n", resp.SubjectName, resp.TargetGrade)
			fmt.Fprintf(out, "Current: %.1f%%  Needed overall: %.0f%%  Best possible: %.1f%%\n",
				check.CurrentPercentage, check.RequiredPercentage, check.MaxPossiblePercentage)
			if resp.Achievable {
				fmt.Fprintf(out, "Required final marks: %.0f / %.0f (%s)\n", resp.RequiredMarksDisplay, resp.FinalMax, resp.Basis)
			} else {
				fmt.Fprintf(out, "Not achievable (%s)\n", resp.Basis)
			}
			fmt.Fprintln(out, resp.Explanation)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Subject name")
	cmd.Flags().StringVar(&subjectID, "subject-id", "", "Catalog id (daa, cn, se, cc); resolved from the name when empty")
	cmd.Flags().IntVar(&credits, "credits", 0, "Credit weight of the subject")
	cmd.Flags().StringArrayVar(&components, "component", nil, `Partial score as "name=earned/max", midterm first (repeatable)`)
	cmd.Flags().Float64Var(&finalMax, "final-max", 40, "Maximum marks of the final component")
	cmd.Flags().StringVar(&grade, "grade", "", "Target letter grade")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("grade")
	return cmd
}

func newAdviceCommand(a *app) *cobra.Command {
	var subject, grade string
	cmd := &cobra.Command{
		Use:   "advice",
		Short: "Print study advice for a subject and target grade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			advice, err := a.advice.Advise(dto.AdviceRequest{
				SubjectName: subject,
				TargetGrade: strings.ToUpper(strings.TrimSpace(grade)),
			})
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return a.printJSON(cmd.OutOrStdout(), advice)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s): %s difficulty, about %d hours per week\n\n",
				advice.Subject, advice.TargetGrade, advice.DifficultyLevel, advice.EstimatedStudyHours)
			fmt.Fprintln(out, advice.Advice)
			if len(advice.FocusAreas) > 0 {
				fmt.Fprintln(out, "\nFocus areas:")
				for _, area := range advice.FocusAreas {
					fmt.Fprintf(out, "  - %s\n", area)
				}
			}
			if len(advice.StudyStrategies) > 0 {
				fmt.Fprintln(out, "\nStrategies:")
				for _, strategy := range advice.StudyStrategies {
					fmt.Fprintf(out, "  - %s\n", strategy)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Subject name")
	cmd.Flags().StringVar(&grade, "grade", "", "Target letter grade")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("grade")
	return cmd
}

// parseSubject reads "Name:credits". The last colon separates the credits so names may
// contain colons.
func parseSubject(raw string) (dto.SubjectInput, error) {
	idx := strings.LastIndex(raw, ":")
	if idx <= 0 {
		return dto.SubjectInput{}, fmt.Errorf("invalid subject %q: expected Name:credits", raw)
	}
	credits, err := strconv.Atoi(strings.TrimSpace(raw[idx+1:]))
	if err != nil {
		return dto.SubjectInput{}, fmt.Errorf("invalid subject %q: credits must be a whole number", raw)
	}
	return dto.SubjectInput{Name: strings.TrimSpace(raw[:idx]), CreditWeight: credits}, nil
}

// parseComponent reads "name=earned/max".
func parseComponent(raw string) (dto.ComponentInput, error) {
	name, score, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return dto.ComponentInput{}, fmt.Errorf("invalid component %q: expected name=earned/max", raw)
	}
	earnedRaw, maxRaw, ok := strings.Cut(score, "/")
	if !ok {
		return dto.ComponentInput{}, fmt.Errorf("invalid component %q: expected name=earned/max", raw)
	}
	earned, err := strconv.ParseFloat(strings.TrimSpace(earnedRaw), 64)
	if err != nil {
		return dto.ComponentInput{}, fmt.Errorf("invalid component %q: earned marks: %w", raw, err)
	}
	maxMarks, err := strconv.ParseFloat(strings.TrimSpace(maxRaw), 64)
	if err != nil {
		return dto.ComponentInput{}, fmt.Errorf("invalid component %q: maximum marks: %w", raw, err)
	}
	return dto.ComponentInput{Name: strings.TrimSpace(name), Earned: earned, Max: maxMarks}, nil
}
