package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/cache"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/realtime"
	"github.com/taskdeck/taskdeck/pkg/authtoken"
)

// app holds the wired dependencies shared by every command. The realtime
// bus and the snapshot store are only opened by the commands that use them.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	tokens *authtoken.Store
	client *api.Client
}

// newBus creates the injectable realtime bus for commands that follow the
// event stream.
func (a *app) newBus() *realtime.Bus {
	return realtime.New(a.cfg.Realtime.URL,
		realtime.WithLogger(a.log),
		realtime.WithReconnect(a.cfg.Realtime.ReconnectAttempts, a.cfg.Realtime.ReconnectDelay),
	)
}

// openSnapshots opens the local snapshot cache.
func (a *app) openSnapshots() (*cache.Store, error) {
	return cache.Open(a.cfg.Cache.Path)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "taskdeck",
		Short:         "Terminal client for the task board backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newTasksCmd(a),
		newProjectsCmd(a),
		newCommentsCmd(a),
		newNotificationsCmd(a),
		newBoardCmd(a),
		newWatchCmd(a),
		newProfileCmd(a),
	)
	return root
}
