package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/export"
	"taskboard/internal/service"

	"github.com/spf13/cobra"
)

// warn prints a non-fatal persistence problem and keeps going.
func warn(err error) error {
	if err != nil && service.IsWarning(err) {
		fmt.Fprintln(os.Stderr, "warning:", err)
		return nil
	}
	return err
}

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.writable(); err != nil {
				return err
			}

			description, _ := cmd.Flags().GetString("description")
			priority, _ := cmd.Flags().GetString("priority")
			completed, _ := cmd.Flags().GetBool("completed")
			draft := domain.TaskDraft{
				Title:       args[0],
				Description: description,
				Completed:   completed,
				Priority:    domain.Priority(priority),
			}
			if due, _ := cmd.Flags().GetString("due"); due != "" {
				if draft.DueDate, err = parseDue(due); err != nil {
					return err
				}
			}

			task, err := s.store.Add(ctx, draft)
			if err := warn(err); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, task, taskTable([]*domain.Task{task}, time.Now()))
		},
	}

	cmd.Flags().StringP("description", "d", "", "Description")
	cmd.Flags().StringP("priority", "p", string(domain.PriorityMedium), "Priority (low, medium, high)")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().Bool("completed", false, "Create already completed")

	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			_ = warn(s.loadErr)

			filter, _ := cmd.Flags().GetString("filter")
			tasks, err := s.store.VisibleWith(domain.Filter(filter))
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, tasks, taskTable(tasks, time.Now()))
		},
	}

	cmd.Flags().StringP("filter", "f", string(domain.FilterAll), "Filter (all, active, completed)")

	return cmd
}

func updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Change fields of a task; only the flags given are applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			var patch domain.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				v, _ := flags.GetString("title")
				patch.Title = &v
			}
			if flags.Changed("description") {
				v, _ := flags.GetString("description")
				patch.Description = &v
			}
			if flags.Changed("priority") {
				v, _ := flags.GetString("priority")
				p := domain.Priority(v)
				patch.Priority = &p
			}
			if flags.Changed("completed") {
				v, _ := flags.GetBool("completed")
				patch.Completed = &v
			}
			if flags.Changed("due") {
				v, _ := flags.GetString("due")
				if v == "" {
					patch.ClearDueDate = true
				} else if patch.DueDate, err = parseDue(v); err != nil {
					return err
				}
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to update")
			}

			ctx := context.Background()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.writable(); err != nil {
				return err
			}

			task, err := s.store.Update(ctx, args[0], patch)
			if err := warn(err); err != nil {
				return err
			}
			if task == nil {
				return fmt.Errorf("task %s not found", args[0])
			}
			return render(cmd.OutOrStdout(), format, task, taskTable([]*domain.Task{task}, time.Now()))
		},
	}

	cmd.Flags().String("title", "", "New title")
	cmd.Flags().StringP("description", "d", "", "New description")
	cmd.Flags().StringP("priority", "p", "", "New priority (low, medium, high)")
	cmd.Flags().Bool("completed", false, "Completed state")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD); empty clears it")

	return cmd
}

// mutateByID runs op on a single task and prints the result.
func mutateByID(use, short string, op func(st *service.TaskStore, ctx context.Context, id string) (*domain.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.writable(); err != nil {
				return err
			}

			task, err := op(s.store, ctx, args[0])
			if err := warn(err); err != nil {
				return err
			}
			if task == nil {
				return fmt.Errorf("task %s not found", args[0])
			}
			return render(cmd.OutOrStdout(), format, task, taskTable([]*domain.Task{task}, time.Now()))
		},
	}
}

func toggleCmd() *cobra.Command {
	return mutateByID("toggle", "Flip a task between active and completed", (*service.TaskStore).Toggle)
}

func deleteCmd() *cobra.Command {
	return mutateByID("delete", "Delete a task", (*service.TaskStore).Delete)
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all completed tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.writable(); err != nil {
				return err
			}

			removed, err := s.store.ClearCompleted(ctx)
			if err := warn(err); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, map[string]int{"removed": removed}, func(w io.Writer) {
				fmt.Fprintf(w, "removed %d completed task(s)\n", removed)
			})
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			_ = warn(s.loadErr)

			st := s.store.Statistics()
			return render(cmd.OutOrStdout(), format, st, statsTable(st))
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as json, csv or pdf",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, _ := cmd.Flags().GetString("format")
			format, err := export.ParseFormat(f)
			if err != nil {
				return err
			}
			ctx := context.Background()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			_ = warn(s.loadErr)

			filter, _ := cmd.Flags().GetString("filter")
			tasks, err := s.store.VisibleWith(domain.Filter(filter))
			if err != nil {
				return err
			}
			data, err := export.Export(tasks, s.store.Statistics(), format, time.Now())
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("out")
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", "json", "Format (json, csv, pdf)")
	cmd.Flags().String("out", "", "Output file (default stdout)")
	cmd.Flags().String("filter", string(domain.FilterAll), "Filter (all, active, completed)")

	return cmd
}
