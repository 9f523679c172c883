package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"taskboard/internal/domain"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func outputFormat(cmd *cobra.Command) (string, error) {
	out, _ := cmd.Flags().GetString("output")
	switch out {
	case "table", "json", "yaml":
		return out, nil
	}
	return "", fmt.Errorf("unknown output %q (table, json, yaml)", out)
}

// render writes v as json/yaml, or calls table for the human format.
func render(w io.Writer, format string, v any, table func(w io.Writer)) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	default:
		table(w)
		return nil
	}
}

func taskTable(tasks []*domain.Task, now time.Time) func(w io.Writer) {
	return func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDONE\tPRIORITY\tDUE\tTITLE")
		for _, t := range tasks {
			done := " "
			if t.Completed {
				done = "x"
			}
			due := "-"
			if t.DueDate != nil {
				due = t.DueDate.Format(time.DateOnly)
				if t.Overdue(now) {
					due += " (overdue)"
				}
			}
			fmt.Fprintf(tw, "%s\t[%s]\t%s\t%s\t%s\n", t.ID, done, t.Priority, due, t.Title)
		}
		tw.Flush()
		if len(tasks) == 0 {
			fmt.Fprintln(w, "(no tasks)")
		}
	}
}

func statsTable(st domain.Stats) func(w io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintln(w, "Tasks")
		fmt.Fprintln(w, strings.Repeat("=", 24))
		fmt.Fprintf(w, "  Total:      %d\n", st.Total)
		fmt.Fprintf(w, "  Active:     %d\n", st.Active)
		fmt.Fprintf(w, "  Completed:  %d\n", st.Completed)
		fmt.Fprintf(w, "  Overdue:    %d\n", st.Overdue)
		fmt.Fprintf(w, "  Done:       %d%%\n", st.CompletionRate)
	}
}
