package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/app/repository"
	"github.com/ManuelReschke/StreamFox/internal/pkg/database"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "promote <email>",
		Short: "Grant the admin role to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			db, err := database.Connect(database.LoadConfig())
			if err != nil {
				return err
			}
			return setRole(repository.NewUserRepository(db), args[0], models.ROLE_ADMIN, c)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "demote <email>",
		Short: "Revoke the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			db, err := database.Connect(database.LoadConfig())
			if err != nil {
				return err
			}
			return setRole(repository.NewUserRepository(db), args[0], models.ROLE_USER, c)
		},
	})

	return cmd
}

func setRole(users repository.UserRepository, email, role string, c *cobra.Command) error {
	user, err := users.GetByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("no user with email %s", email)
	}
	if err != nil {
		return err
	}
	if err := users.SetRole(user.ID, role); err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "%s is now %s\n", user.Email, role)
	return nil
}
