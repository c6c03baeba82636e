// Command usageconf validates and inspects usage engine configuration
// documents without needing a running server or an InfluxDB connection.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/BuongiornoTexas/pwdusage/pkg/config"
	"github.com/BuongiornoTexas/pwdusage/pkg/engine"
	"github.com/BuongiornoTexas/pwdusage/pkg/tariff"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "usageconf",
	Short: "Inspect and validate usage engine configuration documents",
	Long: `usageconf loads a usage engine configuration document and either
validates it or prints its resolved plans and calendar.

The document is read from --config, the USAGE_CONFIG environment variable,
or usage.json in the current directory.`,
	SilenceUsage: true,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration document",
	Example: `  usageconf validate
  usageconf --config usage.yaml validate`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, graph, violations := loadDocument()
		if len(violations) > 0 {
			for _, v := range violations {
				fmt.Fprintf(cmd.ErrOrStderr(), "  - %v\n", v)
			}
			return fmt.Errorf("%d configuration violation(s)", len(violations))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d plan(s), %d calendar entr(y/ies)\n",
			len(graph.Plans), len(graph.Calendar.Entries()))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
}

var showPlansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Print every plan with its resolved seasons and schedules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, graph, violations := loadDocument()
		if len(violations) > 0 {
			return fmt.Errorf("document invalid, run validate for details")
		}

		tw := tablewriter.NewWriter(cmd.OutOrStdout())
		tw.SetHeader([]string{"PLAN", "AGENT", "SEASON", "SCHEDULE", "DAYS", "PERIODS"})
		tw.SetBorder(true)
		tw.SetRowLine(false)
		tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		tw.SetAlignment(tablewriter.ALIGN_LEFT)
		tw.SetAutoWrapText(false)

		planNames := make([]string, 0, len(graph.Plans))
		for name := range graph.Plans {
			planNames = append(planNames, name)
		}
		sort.Strings(planNames)

		for _, planName := range planNames {
			plan := graph.Plans[planName]
			for _, seasonName := range plan.Seasons() {
				season, err := plan.Season(seasonName)
				if err != nil {
					return err
				}
				scheduleNames := make([]string, 0, len(season.Schedules))
				for name := range season.Schedules {
					scheduleNames = append(scheduleNames, name)
				}
				sort.Strings(scheduleNames)
				for _, name := range scheduleNames {
					sched := season.Schedules[name]
					tw.Append([]string{
						plan.Name,
						plan.Agent,
						season.Name,
						sched.Name,
						formatDays(sched.Days),
						formatPeriods(sched.Periods),
					})
				}
			}
		}
		tw.Render()
		return nil
	},
}

var showCalendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Print the resolved calendar entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, graph, violations := loadDocument()
		if len(violations) > 0 {
			return fmt.Errorf("document invalid, run validate for details")
		}

		tw := tablewriter.NewWriter(cmd.OutOrStdout())
		tw.SetHeader([]string{"START", "END", "PLAN", "SEASON", "TARIFFS"})
		tw.SetBorder(true)
		tw.SetRowLine(false)
		tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		tw.SetAlignment(tablewriter.ALIGN_LEFT)
		tw.SetAutoWrapText(false)

		for _, entry := range graph.Calendar.Entries() {
			end := "-"
			if !entry.End.IsZero() {
				end = entry.End.Format("2006-01-02")
			}
			names := make([]string, 0, len(entry.Tariffs))
			for name := range entry.Tariffs {
				names = append(names, name)
			}
			sort.Strings(names)
			tw.Append([]string{
				entry.Start.Format("2006-01-02"),
				end,
				entry.Plan,
				entry.Season,
				strings.Join(names, ", "),
			})
		}
		tw.Render()
		return nil
	},
}

// loadDocument parses and validates the configured document the same way the
// server's reload does, minus the data source.
func loadDocument() (config.Settings, *tariff.Graph, []error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return config.Settings{}, nil, []error{err}
	}

	doc, err := config.Parse(data, configPath)
	if err != nil {
		return config.Settings{}, nil, []error{err}
	}

	settings, violations := doc.Settings.Build()
	graph, errs := tariff.Build(doc, settings.Location)
	violations = append(violations, errs...)

	for _, plan := range graph.Plans {
		if plan.Agent == "" {
			continue
		}
		if _, err := engine.NewAgent(plan.Agent, plan); err != nil {
			violations = append(violations, err)
		}
	}

	return settings, graph, violations
}

func formatDays(days map[time.Weekday]bool) string {
	// Monday-first, matching the document's day numbering.
	order := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
	var parts []string
	for _, d := range order {
		if days[d] {
			parts = append(parts, d.String()[:3])
		}
	}
	return strings.Join(parts, ",")
}

func formatPeriods(periods []tariff.TariffPeriod) string {
	parts := make([]string, 0, len(periods))
	for _, p := range periods {
		parts = append(parts, fmt.Sprintf("%s %s", p.Start, p.Tariff))
	}
	return strings.Join(parts, "; ")
}

func init() {
	defaultPath := os.Getenv("USAGE_CONFIG")
	if defaultPath == "" {
		defaultPath = "usage.json"
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "path to the configuration document")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(showCmd)
	showCmd.AddCommand(showPlansCmd)
	showCmd.AddCommand(showCalendarCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
