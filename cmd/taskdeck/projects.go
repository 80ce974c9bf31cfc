package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/cache"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/state"
)

func newProjectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and manage projects",
	}
	cmd.AddCommand(
		newProjectsListCmd(a),
		newProjectsAddCmd(a),
		newProjectsRmCmd(a),
		newProjectTasksCmd(a),
	)
	return cmd
}

func newProjectsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := a.client.Projects.List(cmd.Context())
			if err != nil {
				return err
			}
			if snapshots, serr := a.openSnapshots(); serr == nil {
				if err := snapshots.SaveProjects(projects); err != nil {
					a.log.Warn("failed to cache projects", "error", err)
				}
				snapshots.Close()
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, p := range projects {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Title, p.Color, p.Description)
			}
			return w.Flush()
		},
	}
}

func newProjectsAddCmd(a *app) *cobra.Command {
	var description, color string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.client.Projects.Create(cmd.Context(), models.ProjectCreate{
				Title:       args[0],
				Description: description,
				Color:       color,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created project %d: %s\n", p.ID, p.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "project description")
	cmd.Flags().StringVar(&color, "color", models.ColorAqua, "palette color")
	return cmd
}

func newProjectsRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a project and (server-side) its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.client.Projects.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("deleted project %d\n", id)
			return nil
		},
	}
}

func newProjectTasksCmd(a *app) *cobra.Command {
	var sortMode string
	cmd := &cobra.Command{
		Use:   "tasks <id>",
		Short: "List a project's tasks bucketed by status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			mode, ok := state.ParseSortMode(sortMode)
			if !ok {
				return fmt.Errorf("unknown sort mode %q", sortMode)
			}
			tasks, err := a.client.Projects.Tasks(cmd.Context(), id)
			if err != nil {
				return err
			}
			if snapshots, serr := a.openSnapshots(); serr == nil {
				if err := snapshots.SaveTasks(cache.ProjectScope(id), tasks); err != nil {
					a.log.Warn("failed to cache snapshot", "error", err)
				}
				snapshots.Close()
			}

			board := state.NewBoard()
			board.ApplySnapshot(tasks)
			board.SetSort(mode)
			printBoard(board)
			return nil
		},
	}
	cmd.Flags().StringVar(&sortMode, "sort", "manual", "sort mode: manual, dueDate, priority, title, created")
	return cmd
}
