package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yatube/internal/auth"
	"yatube/internal/db"
	"yatube/internal/models"
)

func init() {
	RootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().String("username", "", "login name")
	userCreateCmd.Flags().String("password", "", "at least 8 characters")
	userCreateCmd.Flags().String("first-name", "", "")
	userCreateCmd.Flags().String("last-name", "", "")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Args:  cobra.NoArgs,
	RunE:  userCreate,
}

func userCreate(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	first, _ := cmd.Flags().GetString("first-name")
	last, _ := cmd.Flags().GetString("last-name")

	username = strings.TrimSpace(username)
	if err := auth.CheckNames(username, first, last); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	u := models.User{
		Username:     username,
		FirstName:    strings.TrimSpace(first),
		LastName:     strings.TrimSpace(last),
		PasswordHash: hash,
	}
	return withStore(cmd.Context(), func(s *db.Store) error {
		if err := s.CreateUser(cmd.Context(), &u); err != nil {
			if errors.Is(err, db.ErrConflict) {
				return auth.ErrUsernameTaken
			}
			return err
		}
		log.Info("user created", zap.Int64("uid", u.ID), zap.String("username", u.Username))
		fmt.Fprintf(cmd.OutOrStdout(), "created user %d /profile/%s/\n", u.ID, u.Username)
		return nil
	})
}
