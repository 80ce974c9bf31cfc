package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/cache"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/state"
	"github.com/taskdeck/taskdeck/internal/ui"
)

func newBoardCmd(a *app) *cobra.Command {
	var projectID int64
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Interactive status board with live updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var pid *int64
			if projectID != 0 {
				pid = &projectID
			}

			board := state.NewBoard()

			// Paint the last cached snapshot while the live fetch is in
			// flight; the snapshot merge reconciles whichever lands later.
			if snapshots, err := a.openSnapshots(); err == nil {
				if err := preloadBoard(snapshots, board, pid); err != nil {
					a.log.Warn("failed to preload cached snapshot", "error", err)
				}
				snapshots.Close()
			}

			program := tea.NewProgram(
				ui.NewModel(a.client, board, pid, a.log),
				tea.WithAltScreen(),
			)

			a.client.OnStatusChange(func(s api.Status) {
				program.Send(ui.ConnStatusMsg{Status: s})
			})
			a.client.StartConnectionMonitor(ctx, 30*time.Second)

			bus := a.newBus()
			unsubscribe := bus.Subscribe(models.TopicTaskUpdate, func(kind models.ChangeKind, data json.RawMessage) {
				msg, ok := decodeTaskEvent(kind, data, pid, board)
				if ok {
					program.Send(msg)
				}
			})
			defer unsubscribe()
			bus.OnReconnect(func() {
				program.Send(ui.ReconnectedMsg{})
			})

			go func() {
				if err := bus.Run(ctx); err != nil && ctx.Err() == nil {
					a.log.Warn("event stream stopped", "error", err)
				}
			}()

			_, err := program.Run()
			return err
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "show one project's board instead of my tasks")
	return cmd
}

// preloadBoard applies the cached snapshot for the board's scope. A scope
// that has never been cached is not an error.
func preloadBoard(snapshots *cache.Store, board *state.Board, pid *int64) error {
	scope := cache.ScopeMyTasks
	if pid != nil {
		scope = cache.ProjectScope(*pid)
	}
	tasks, err := snapshots.Tasks(scope)
	if err != nil {
		if errors.Is(err, cache.ErrNoSnapshot) {
			return nil
		}
		return err
	}
	board.ApplySnapshot(tasks)
	return nil
}

// decodeTaskEvent turns a raw push into a board message. When the board is
// scoped to a project, events for other projects are ignored, except that a
// task moved out of the project is removed.
func decodeTaskEvent(kind models.ChangeKind, data json.RawMessage, pid *int64, board *state.Board) (ui.EventMsg, bool) {
	if kind == models.ChangeDeleted {
		var payload struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return ui.EventMsg{}, false
		}
		return ui.EventMsg{Kind: kind, DeletedID: payload.ID}, true
	}

	var task models.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return ui.EventMsg{}, false
	}
	if pid != nil && (task.ProjectID == nil || *task.ProjectID != *pid) {
		if _, onBoard := board.Task(task.EntityKey()); onBoard {
			return ui.EventMsg{Kind: models.ChangeDeleted, DeletedID: task.ID}, true
		}
		return ui.EventMsg{}, false
	}
	return ui.EventMsg{Kind: kind, Task: task}, true
}
