package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yatube/internal/db"
	"yatube/internal/forms"
)

func init() {
	RootCmd.AddCommand(groupCmd)
	groupCmd.AddCommand(groupCreateCmd, groupListCmd)

	groupCreateCmd.Flags().String("title", "", "group title")
	groupCreateCmd.Flags().String("slug", "", "URL slug, letters, digits, - and _")
	groupCreateCmd.Flags().String("description", "", "group description")
}

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group",
	Args:  cobra.NoArgs,
	RunE:  groupCreate,
}

var groupListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List groups",
	Args:    cobra.NoArgs,
	RunE:    groupList,
}

func groupCreate(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	slug, _ := cmd.Flags().GetString("slug")
	desc, _ := cmd.Flags().GetString("description")

	g, errs := forms.GroupForm{Title: title, Slug: slug, Description: desc}.Validate()
	if errs != nil {
		return errs
	}

	return withStore(cmd.Context(), func(s *db.Store) error {
		if err := s.CreateGroup(cmd.Context(), &g); err != nil {
			if errors.Is(err, db.ErrConflict) {
				return fmt.Errorf("slug %q is already used", g.Slug)
			}
			return err
		}
		log.Info("group created", zap.Int64("id", g.ID), zap.String("slug", g.Slug))
		fmt.Fprintf(cmd.OutOrStdout(), "created group %d /group/%s/\n", g.ID, g.Slug)
		return nil
	})
}

func groupList(cmd *cobra.Command, args []string) error {
	return withStore(cmd.Context(), func(s *db.Store) error {
		groups, err := s.ListGroups(cmd.Context())
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no groups")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSLUG\tTITLE")
		for _, g := range groups {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
		}
		return tw.Flush()
	})
}
