package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/chepyr/task-scheduler/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func parseOutput(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case outputTable, outputJSON, outputYAML:
		return f, nil
	case "":
		return outputTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q, want table, json or yaml", s)
	}
}

func printTasks(w io.Writer, list []models.Task, format string) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(list); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDONE\tPRIORITY\tDUE\tTITLE\tCREATED")
		for _, t := range list {
			done := " "
			if t.Completed {
				done = "x"
			}
			fmt.Fprintf(tw, "%s\t[%s]\t%s\t%s\t%s\t%s\n",
				t.ID, done, t.Priority, t.DueDate, t.Title, t.CreatedAt)
		}
		return tw.Flush()
	}
}
