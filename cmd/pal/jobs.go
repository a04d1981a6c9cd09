package main

import (
	"fmt"

	"github.com/palabra-app/palabra/internal/jobs"
	"github.com/spf13/cobra"
)

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run or inspect the periodic maintenance jobs",
	}

	cmd.AddCommand(newJobsRunCmd())
	cmd.AddCommand(newJobsNextCmd())
	return cmd
}

func newJobsRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the periodic maintenance jobs once",
		Long:  "Lifts every timed pause whose resume date has passed, sweeps each user's buried cards, then exits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := jobs.RunResumeExpired(gormDB, out); err != nil {
				return err
			}
			if err := jobs.RunUnbury(gormDB, out); err != nil {
				return err
			}
			fmt.Fprintln(out, "Done.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "palabra.yaml", "path to Palabra config file")
	return cmd
}

func newJobsNextCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show when the scheduled jobs fire next",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, job := range []struct {
				name string
				expr string
			}{
				{"resume-expired", cfg.Jobs.ResumeExpired},
				{"unbury", cfg.Jobs.Unbury},
			} {
				next, err := jobs.NextRun(job.expr)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s (%s): next run %s\n",
					job.name, job.expr, next.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "palabra.yaml", "path to Palabra config file")
	return cmd
}
