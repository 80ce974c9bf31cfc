package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNotificationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "Read notifications",
	}

	var unreadOnly bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			notifications, err := a.client.Notifications.List(cmd.Context(), unreadOnly)
			if err != nil {
				return err
			}
			for _, n := range notifications {
				mark := " "
				if !n.IsRead {
					mark = "*"
				}
				fmt.Printf("%s [%d] (%s) %s\n", mark, n.ID, n.Type, n.Message)
			}
			return nil
		},
	}
	list.Flags().BoolVar(&unreadOnly, "unread", false, "only unread notifications")

	count := &cobra.Command{
		Use:   "count",
		Short: "Show the unread count",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.client.Notifications.UnreadCount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}

	read := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.client.Notifications.MarkRead(cmd.Context(), id)
		},
	}

	readAll := &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification read",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.Notifications.MarkAllRead(cmd.Context())
		},
	}

	check := &cobra.Command{
		Use:   "check",
		Short: "Ask the server to generate due-soon notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Notifications.CheckDueDates(cmd.Context()); err != nil {
				return err
			}
			n, err := a.client.Notifications.UnreadCount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%d unread\n", n)
			return nil
		},
	}

	cmd.AddCommand(list, count, read, readAll, check)
	return cmd
}
