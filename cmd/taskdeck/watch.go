package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/state"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the realtime event stream and print changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			board := state.NewBoard()
			projects := state.NewList[models.Project]()

			// Tasks and projects fetch concurrently; responses may land in
			// any order and we only print once both settled.
			if err := fetchAll(ctx, a, board, projects); err != nil {
				return err
			}
			printCounts(board, projects)

			bus := a.newBus()

			unsubTasks := bus.Subscribe(models.TopicTaskUpdate, func(kind models.ChangeKind, data json.RawMessage) {
				applyTaskEvent(board, kind, data)
				describe(a, "task", kind, data)
				printCounts(board, projects)
			})
			defer unsubTasks()

			unsubProjects := bus.Subscribe(models.TopicProjectUpdate, func(kind models.ChangeKind, data json.RawMessage) {
				applyProjectEvent(projects, kind, data)
				describe(a, "project", kind, data)
				printCounts(board, projects)
			})
			defer unsubProjects()

			unsubComments := bus.Subscribe(models.TopicCommentUpdate, func(kind models.ChangeKind, data json.RawMessage) {
				describe(a, "comment", kind, data)
			})
			defer unsubComments()

			// Push delivery over a gap is not trusted; every reconnect
			// re-fetches the full snapshot.
			bus.OnReconnect(func() {
				refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				defer cancel()
				if err := fetchAll(refreshCtx, a, board, projects); err != nil {
					a.log.Warn("post-reconnect refresh failed", "error", err)
					return
				}
				fmt.Println("reconnected, snapshot refreshed")
				printCounts(board, projects)
			})

			fmt.Println("watching for changes (ctrl-c to stop)")
			if err := bus.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

func fetchAll(ctx context.Context, a *app, board *state.Board, projects *state.List[models.Project]) error {
	var (
		wg          sync.WaitGroup
		tasksErr    error
		projectsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		tasks, err := a.client.Tasks.List(ctx, false)
		if err != nil {
			tasksErr = err
			return
		}
		board.ApplySnapshot(tasks)
	}()
	go func() {
		defer wg.Done()
		list, err := a.client.Projects.List(ctx)
		if err != nil {
			projectsErr = err
			return
		}
		projects.ApplySnapshot(list)
	}()
	wg.Wait()

	if tasksErr != nil {
		return fmt.Errorf("fetch tasks: %w", tasksErr)
	}
	if projectsErr != nil {
		return fmt.Errorf("fetch projects: %w", projectsErr)
	}
	return nil
}

func applyTaskEvent(board *state.Board, kind models.ChangeKind, data json.RawMessage) {
	if kind == models.ChangeDeleted {
		var payload struct {
			ID int64 `json:"id"`
		}
		if json.Unmarshal(data, &payload) == nil {
			board.ApplyDeleted(payload.ID)
		}
		return
	}
	var task models.Task
	if json.Unmarshal(data, &task) != nil {
		return
	}
	if kind == models.ChangeCreated {
		board.ApplyCreated(task)
	} else {
		board.ApplyUpdated(task)
	}
}

func applyProjectEvent(projects *state.List[models.Project], kind models.ChangeKind, data json.RawMessage) {
	if kind == models.ChangeDeleted {
		var payload struct {
			ID int64 `json:"id"`
		}
		if json.Unmarshal(data, &payload) == nil {
			projects.ApplyDeleted(models.Project{ID: payload.ID}.EntityKey())
		}
		return
	}
	var project models.Project
	if json.Unmarshal(data, &project) != nil {
		return
	}
	if kind == models.ChangeCreated {
		projects.ApplyCreated(project)
	} else {
		projects.ApplyUpdated(project)
	}
}

func describe(a *app, entity string, kind models.ChangeKind, data json.RawMessage) {
	var payload struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		a.log.Debug("undecodable event payload", "entity", entity)
		return
	}
	if payload.Title != "" {
		fmt.Printf("%s %s %s (id %d): %s\n", time.Now().Format("15:04:05"), entity, kind, payload.ID, payload.Title)
	} else {
		fmt.Printf("%s %s %s (id %d)\n", time.Now().Format("15:04:05"), entity, kind, payload.ID)
	}
}

func printCounts(board *state.Board, projects *state.List[models.Project]) {
	fmt.Printf("  tasks: todo %d / in progress %d / review %d / done %d · projects: %d\n",
		len(board.Bucket(models.TaskStatusTodo)),
		len(board.Bucket(models.TaskStatusInProgress)),
		len(board.Bucket(models.TaskStatusReview)),
		len(board.Bucket(models.TaskStatusDone)),
		projects.Len(),
	)
}
