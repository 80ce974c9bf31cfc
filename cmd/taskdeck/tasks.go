package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/cache"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/state"
)

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and manage tasks",
	}
	cmd.AddCommand(
		newTasksListCmd(a),
		newTasksAddCmd(a),
		newTasksDoneCmd(a),
		newTasksRmCmd(a),
		newTasksSearchCmd(a),
	)
	return cmd
}

func newTasksListCmd(a *app) *cobra.Command {
	var (
		mine     bool
		cached   bool
		sortMode string
		priority string
		status   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks bucketed by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := state.ParseSortMode(sortMode)
			if !ok {
				return fmt.Errorf("unknown sort mode %q", sortMode)
			}

			snapshots, err := a.openSnapshots()
			if err != nil {
				return err
			}
			defer snapshots.Close()

			scope := cache.ScopeAllTasks
			if mine {
				scope = cache.ScopeMyTasks
			}

			var tasks []models.Task
			if cached {
				tasks, err = snapshots.Tasks(scope)
				if errors.Is(err, cache.ErrNoSnapshot) {
					return fmt.Errorf("nothing cached yet for this listing")
				}
				if err != nil {
					return err
				}
				if at, err := snapshots.FetchedAt(scope); err == nil {
					fmt.Printf("cached snapshot from %s\n", at.Local().Format("2006-01-02 15:04"))
				}
			} else {
				tasks, err = a.client.Tasks.List(cmd.Context(), mine)
				if err != nil {
					return err
				}
				if err := snapshots.SaveTasks(scope, tasks); err != nil {
					a.log.Warn("failed to cache snapshot", "error", err)
				}
			}

			board := state.NewBoard()
			board.ApplySnapshot(tasks)
			board.SetSort(mode)
			board.SetFilter(state.Filter{Priority: priority, Status: status})

			printBoard(board)
			return nil
		},
	}
	cmd.Flags().BoolVar(&mine, "mine", true, "only tasks assigned to or created by me")
	cmd.Flags().BoolVar(&cached, "cached", false, "use the last cached snapshot instead of fetching")
	cmd.Flags().StringVar(&sortMode, "sort", "manual", "sort mode: manual, dueDate, priority, title, created")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	return cmd
}

func printBoard(board *state.Board) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, status := range models.TaskStatuses {
		tasks := board.Bucket(status)
		if len(tasks) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s (%d)\n", status, len(tasks))
		for _, t := range tasks {
			due := t.DueDate
			if due == "" {
				due = "-"
			}
			fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", t.ID, t.Title, t.Priority, due)
		}
	}
	w.Flush()
}

func newTasksAddCmd(a *app) *cobra.Command {
	var (
		description string
		priority    string
		due         string
		projectID   int64
		assigneeID  int64
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if priority != models.PriorityLow && priority != models.PriorityMedium && priority != models.PriorityHigh {
				return fmt.Errorf("unknown priority %q", priority)
			}
			in := models.TaskCreate{
				Title:       args[0],
				Description: description,
				Status:      models.TaskStatusTodo,
				Priority:    priority,
				DueDate:     due,
			}
			if projectID != 0 {
				in.ProjectID = &projectID
			}
			if assigneeID != 0 {
				in.AssigneeID = &assigneeID
			}
			task, err := a.client.Tasks.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("created task %d: %s\n", task.ID, task.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&priority, "priority", "p", models.PriorityMedium, "low, medium or high")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&projectID, "project", 0, "project id")
	cmd.Flags().Int64Var(&assigneeID, "assignee", 0, "assignee user id")
	return cmd
}

func newTasksDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task done (or back to todo if already done)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := a.client.Tasks.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			next := models.TaskStatusDone
			if task.Status == models.TaskStatusDone {
				next = models.TaskStatusTodo
			}
			updated, err := a.client.Tasks.Update(cmd.Context(), id, models.TaskUpdate{Status: &next})
			if err != nil {
				return err
			}
			fmt.Printf("task %d is now %s\n", updated.ID, updated.Status)
			return nil
		},
	}
}

func newTasksRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.client.Tasks.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("deleted task %d\n", id)
			return nil
		},
	}
}

func newTasksSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search tasks by title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.client.Tasks.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Println("no matching tasks")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, t := range tasks {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, t.Title, t.Status, t.Priority)
			}
			return w.Flush()
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
