package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/models"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show and edit your profile",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show profile details",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.Profile.Get(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("name:   %s\n", user.Name)
			fmt.Printf("email:  %s\n", user.Email)
			if user.Avatar != "" {
				fmt.Printf("avatar: %s\n", user.Avatar)
			}
			fmt.Printf("joined: %s\n", user.CreatedAt.Local().Format("2006-01-02"))
			return nil
		},
	}

	var name, email string
	update := &cobra.Command{
		Use:   "update",
		Short: "Update name or email",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in models.UserUpdate
			if name != "" {
				in.Name = &name
			}
			if email != "" {
				in.Email = &email
			}
			if in.Name == nil && in.Email == nil {
				return fmt.Errorf("nothing to update: pass --name or --email")
			}
			user, err := a.client.Profile.Update(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("profile updated: %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	update.Flags().StringVar(&name, "name", "", "new display name")
	update.Flags().StringVar(&email, "email", "", "new email")

	avatar := &cobra.Command{
		Use:   "avatar <file>",
		Short: "Upload an avatar image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			user, err := a.client.Profile.UploadAvatar(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			fmt.Printf("avatar updated: %s\n", user.Avatar)
			return nil
		},
	}

	avatarRm := &cobra.Command{
		Use:   "avatar-rm",
		Short: "Remove the avatar image",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.Profile.DeleteAvatar(cmd.Context())
		},
	}

	cmd.AddCommand(show, update, avatar, avatarRm)
	return cmd
}
