package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ytbili/internal/api"
	"ytbili/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check the external programs the pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := api.FromDependencyStatuses(deps.CheckPipeline(ctx.configValue()))
			if jsonOut {
				return writeJSON(cmd, statuses)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			printDependencies(out, statuses, colorize)
			if missing := missingRequired(statuses); missing > 0 {
				return fmt.Errorf("%d required dependencies missing", missing)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

func dependencyLines(statuses []api.DependencyStatus, colorize bool) []string {
	lines := make([]string, 0, len(statuses))
	for _, dep := range statuses {
		switch {
		case dep.Available:
			message := "Ready"
			where := dep.Path
			if where == "" {
				where = dep.Command
			}
			if where != "" {
				message = fmt.Sprintf("Ready (%s)", where)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
		case dep.Optional:
			lines = append(lines, renderStatusLine(dep.Name, statusWarn, missingDetail(dep), colorize))
		default:
			lines = append(lines, renderStatusLine(dep.Name, statusError, missingDetail(dep), colorize))
		}
	}
	return lines
}

func missingDetail(dep api.DependencyStatus) string {
	detail := dep.Detail
	if detail == "" {
		detail = "not found"
	}
	if dep.Description != "" {
		detail += "; " + dep.Description
	}
	return detail
}

func missingRequired(statuses []api.DependencyStatus) int {
	count := 0
	for _, dep := range statuses {
		if !dep.Available && !dep.Optional {
			count++
		}
	}
	return count
}

func printDependencies(out io.Writer, statuses []api.DependencyStatus, colorize bool) {
	printSection(out, "Dependencies", colorize, dependencyLines(statuses, colorize))
}
