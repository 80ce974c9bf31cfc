package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCommentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read and write task comments",
	}

	list := &cobra.Command{
		Use:   "list <task-id>",
		Short: "List a task's comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			comments, err := a.client.Comments.List(cmd.Context(), taskID)
			if err != nil {
				return err
			}
			for _, c := range comments {
				author := fmt.Sprintf("user %d", c.UserID)
				if c.User != nil {
					author = c.User.Name
				}
				fmt.Printf("[%d] %s (%s): %s\n", c.ID, author,
					c.CreatedAt.Local().Format("2006-01-02 15:04"), c.Content)
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <task-id> <content>",
		Short: "Comment on a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			comment, err := a.client.Comments.Create(cmd.Context(), taskID, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("added comment %d\n", comment.ID)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <task-id> <comment-id>",
		Short: "Delete your comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			commentID, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := a.client.Comments.Delete(cmd.Context(), taskID, commentID); err != nil {
				return err
			}
			fmt.Printf("deleted comment %d\n", commentID)
			return nil
		},
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}
