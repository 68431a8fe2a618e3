package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"famcal/internal/calendar"
	"famcal/internal/export"
	"famcal/internal/model"
)

func newWeekCmd(rt *runtime) *cobra.Command {
	var date string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Print the week planning with its conflicts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := rt.app
			d, err := app.parseDate(date)
			if err != nil {
				return err
			}
			week, dropped := app.Aggregator.WeekWithErrors(cmd.Context(), d)
			conflicts := app.Detector.DetectWeek(cmd.Context(), week)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Week      model.WeekView   `json:"week"`
					Conflicts []model.Conflict `json:"conflicts"`
					Summary   model.Summary    `json:"summary"`
				}{week, conflicts, calendar.Summarize(conflicts)})
			}
			fmt.Fprint(out, export.Text(week, conflicts))
			if len(dropped) > 0 {
				fmt.Fprintln(out, styleDim.Render(fmt.Sprintf("%d enregistrement(s) ignoré(s), voir les logs", len(dropped))))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Any date of the week (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the week as JSON")
	return cmd
}

func newConflictsCmd(rt *runtime) *cobra.Command {
	var date string
	var strict bool

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List the scheduling conflicts of a week",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := rt.app
			d, err := app.parseDate(date)
			if err != nil {
				return err
			}
			week := app.Aggregator.Week(cmd.Context(), d)
			conflicts := app.Detector.DetectWeek(cmd.Context(), week)
			summary := calendar.Summarize(conflicts)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styleHeader.Render("Semaine "+export.FormatWeekRange(week)))
			printConflicts(out, conflicts)

			if strict && summary.HasErrors() {
				return fmt.Errorf("%d conflit(s) bloquant(s)", summary.Errors)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Any date of the week (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when a blocking conflict exists")
	return cmd
}

func printConflicts(out io.Writer, conflicts []model.Conflict) {
	if len(conflicts) == 0 {
		fmt.Fprintln(out, styleOK.Render("Aucun conflit détecté."))
		return
	}
	for _, c := range conflicts {
		label := severityStyle(c.Severity).Render(fmt.Sprintf("[%s]", c.Severity.Label()))
		fmt.Fprintf(out, "%s %s : %s\n", label, export.FormatDate(c.Day), c.Message)
		if c.Suggestion != "" {
			fmt.Fprintln(out, styleDim.Render("    → "+c.Suggestion))
		}
	}
	s := calendar.Summarize(conflicts)
	fmt.Fprintf(out, "%d conflit(s) : %d erreur(s), %d avertissement(s), %d info(s)\n", s.Total, s.Errors, s.Warnings, s.Infos)
}

func newExportCmd(rt *runtime) *cobra.Command {
	var date, format, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the week planning (text, html, ics, pdf, png)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := rt.app
			d, err := app.parseDate(date)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			week := app.Aggregator.Week(ctx, d)
			conflicts := app.Detector.DetectWeek(ctx, week)

			var body []byte
			switch strings.ToLower(format) {
			case "text", "txt":
				body = []byte(export.Text(week, conflicts))
			case "ics":
				body = []byte(export.ICS(week, app.now()))
			case "html", "pdf", "png":
				if body, err = export.HTML(week, conflicts); err != nil {
					return err
				}
				switch strings.ToLower(format) {
				case "pdf":
					body, err = app.Renderer.PDF(ctx, body)
				case "png":
					body, err = app.Renderer.PNG(ctx, body)
				}
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (text, html, ics, pdf, png)", format)
			}

			if outPath == "" || outPath == "-" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(outPath, body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "écrit : %s (%d octets)\n", outPath, len(body))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Any date of the week (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, html, ics, pdf or png")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file (default stdout)")
	return cmd
}

func newNextCmd(rt *runtime) *cobra.Command {
	var freq, weekday, from string
	var monthDay, days int

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Project the next dates of a recurring task",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := rt.app
			f, err := calendar.ParseFrequency(freq)
			if err != nil {
				return err
			}
			rule := calendar.Recurrence{Frequency: f, MonthDay: monthDay}
			if weekday != "" {
				wd, err := calendar.ParseWeekday(weekday)
				if err != nil {
					return err
				}
				rule.Weekday = &wd
			}
			start, err := app.parseDate(from)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("days") {
				days = app.Config.HorizonDays
			}

			dates, err := calendar.NextOccurrences(rule, start, days)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(dates) == 0 {
				fmt.Fprintln(out, styleDim.Render("Aucune date dans l'horizon."))
				return nil
			}
			for _, d := range dates {
				fmt.Fprintf(out, "%s  %s\n", d.Format("2006-01-02"), export.Capitalize(export.FormatDate(d)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&freq, "freq", "", "Frequency: daily, weekly, biweekly, monthly (or French names)")
	cmd.Flags().StringVar(&weekday, "weekday", "", "Anchor weekday (lundi..dimanche, monday..sunday, or 0..6 from Monday)")
	cmd.Flags().IntVar(&monthDay, "monthday", 0, "Day of month for monthly rules (1-31)")
	cmd.Flags().IntVar(&days, "days", 0, "Horizon in days (default from config)")
	cmd.Flags().StringVar(&from, "from", "", "First candidate date (YYYY-MM-DD, default today)")
	_ = cmd.MarkFlagRequired("freq")
	return cmd
}

func newSpecialDaysCmd(rt *runtime) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "special-days",
		Short: "List holidays, bridge days and daycare closures in [from, to)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := rt.app
			start, err := app.parseDate(from)
			if err != nil {
				return err
			}
			end := start.AddDate(0, 0, 30)
			if to != "" {
				if end, err = app.parseDate(to); err != nil {
					return err
				}
			}
			if !end.After(start) {
				return fmt.Errorf("--to must be after --from")
			}

			days, err := app.SpecialDays.SpecialDays(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(days) == 0 {
				fmt.Fprintln(out, styleDim.Render("Aucun jour particulier."))
				return nil
			}
			for _, d := range days {
				fmt.Fprintf(out, "%s  %-18s %s\n", d.Date.Format("2006-01-02"), d.Kind.EventKind().Label(), d.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&to, "to", "", "Exclusive end date (default from + 30 days)")
	return cmd
}
