package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTeamCmd(open AdminOpener) *cobra.Command {
	teamCmd := &cobra.Command{
		Use:   "team",
		Short: "Manage teams and their members",
	}

	var members []string
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, open, func(ctx context.Context, a Admin) error {
				team, err := a.CreateTeam(ctx, args[0], members)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", team.ID, team.Name, strings.Join(team.MemberIDs, ","))
				return err
			})
		},
	}
	createCmd.Flags().StringSliceVarP(&members, "member", "m", nil, "initial member user id (repeatable)")

	teamCmd.AddCommand(
		createCmd,
		newMembershipCmd(open, "add-member", "Add a user to a team", Admin.AddTeamMember, "added to"),
		newMembershipCmd(open, "remove-member", "Remove a user from a team", Admin.RemoveTeamMember, "removed from"),
	)
	return teamCmd
}

type membershipFunc func(a Admin, ctx context.Context, teamID uuid.UUID, userID string) error

func newMembershipCmd(open AdminOpener, use, short string, change membershipFunc, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <teamId> <userId>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			teamID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid team id %q", args[0])
			}
			return withAdmin(cmd, open, func(ctx context.Context, a Admin) error {
				if err := change(a, ctx, teamID, args[1]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "User %s %s team %s.\n", args[1], verb, teamID)
				return err
			})
		},
	}
}
