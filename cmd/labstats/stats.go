package main

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/helixir/lab-stats-service/internal/app"
	"github.com/helixir/lab-stats-service/internal/domain"
	"github.com/helixir/lab-stats-service/internal/observability"
	"github.com/helixir/lab-stats-service/internal/stats"
)

var personCmd = &cobra.Command{
	Use:   "person NAME",
	Short: "HAL and DBLP statistics for a researcher",
	Long: `person looks the full name up in HAL (author full name) and DBLP (author
search). One failed source does not hide the other; the result is then
marked partial.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := statsRequest(cmd, domain.SubjectKindPerson, strings.Join(args, " "))
		if err != nil {
			return err
		}
		result := newStatsService().PersonStats(cmd.Context(), req)
		if jsonOutput(cmd) {
			return writeJSON(cmd.OutOrStdout(), result)
		}
		return renderPerson(cmd.OutOrStdout(), req.Subject, result)
	},
}

var projectCmd = &cobra.Command{
	Use:   "project NAME",
	Short: "HAL statistics for a project",
	Long: `project searches HAL for the exact project name in any text field. Every
author of a matching publication counts as a collaborator.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := statsRequest(cmd, domain.SubjectKindProject, strings.Join(args, " "))
		if err != nil {
			return err
		}
		result := newStatsService().ProjectStats(cmd.Context(), req)
		if jsonOutput(cmd) {
			return writeJSON(cmd.OutOrStdout(), result)
		}
		return renderProject(cmd.OutOrStdout(), req.Subject, result)
	},
}

var labCmd = &cobra.Command{
	Use:   "lab",
	Short: "Faceted HAL statistics for the whole lab",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		acronym, _ := cmd.Flags().GetString("acronym")
		if acronym = strings.TrimSpace(acronym); acronym == "" {
			acronym = state.cfg.Lab.Acronym
		}
		req, err := statsRequest(cmd, domain.SubjectKindLab, acronym)
		if err != nil {
			return err
		}
		result := newStatsService().LabStats(cmd.Context(), req)
		if jsonOutput(cmd) {
			return writeJSON(cmd.OutOrStdout(), result)
		}
		return renderLab(cmd.OutOrStdout(), result)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{personCmd, projectCmd, labCmd} {
		cmd.Flags().Int("start-year", 0, "keep publications from this year on")
		cmd.Flags().Int("end-year", 0, "keep publications up to this year")
		cmd.Flags().String("keyword", "", "keep publications with a matching keyword")
		rootCmd.AddCommand(cmd)
	}
	labCmd.Flags().String("acronym", "", "HAL structure acronym (default: lab.acronym)")
}

// newStatsService builds a stats service on a private registry; the CLI
// does not expose metrics.
func newStatsService() *stats.Service {
	metrics := observability.NewMetricsWith(state.cfg.Metrics.Namespace, prometheus.NewRegistry())
	return app.NewStatsService(state.cfg, state.logger, metrics)
}

// statsRequest reads the shared filter flags. Only flags set on the command
// line become bounds.
func statsRequest(cmd *cobra.Command, kind domain.SubjectKind, subject string) (domain.StatsRequest, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return domain.StatsRequest{}, fmt.Errorf("%s name must not be empty", kind)
	}

	req := domain.StatsRequest{Subject: subject, Kind: kind}
	req.Keyword, _ = cmd.Flags().GetString("keyword")
	req.Keyword = strings.TrimSpace(req.Keyword)

	var err error
	if req.StartYear, err = yearFlag(cmd, "start-year"); err != nil {
		return req, err
	}
	if req.EndYear, err = yearFlag(cmd, "end-year"); err != nil {
		return req, err
	}
	return req, nil
}

func yearFlag(cmd *cobra.Command, name string) (*int, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	year, err := cmd.Flags().GetInt(name)
	if err != nil {
		return nil, err
	}
	if year < 1000 || year > 9999 {
		return nil, fmt.Errorf("--%s must be between 1000 and 9999, got %d", name, year)
	}
	return &year, nil
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
