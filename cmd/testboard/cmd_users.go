package main

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-testboard-client/guard"
	"github.com/jrsteele09/go-testboard-client/stores"
	"github.com/spf13/cobra"
)

var (
	userPassword string
	userScopes   []string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts (administrators only)",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE:  runUsersList,
}

var usersCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersCreate,
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update <user-id>",
	Short: "Change the password or scopes of a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersUpdate,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDelete,
}

func init() {
	for _, c := range []*cobra.Command{usersCreateCmd, usersUpdateCmd} {
		c.Flags().StringVar(&userPassword, "password", "", "Password")
		c.Flags().StringSliceVar(&userScopes, "scope", nil, "Scope granted to the user (repeatable)")
	}
	_ = usersCreateCmd.MarkFlagRequired("password")
	usersCmd.AddCommand(usersListCmd, usersCreateCmd, usersUpdateCmd, usersDeleteCmd)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteUsers, nil); err != nil {
		return err
	}
	if err := testboard.users.FetchUsers(ctx); err != nil {
		return err
	}

	t := newTable(cmd.OutOrStdout(), "ID", "USERNAME", "SCOPES")
	for _, u := range testboard.users.State().Items {
		t.row(u.ID, u.Username, orDash(strings.Join(u.Scopes, ",")))
	}
	return t.flush()
}

func runUsersCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteUsers, nil); err != nil {
		return err
	}
	user, err := testboard.users.CreateUser(ctx, stores.UserInput{
		Username: args[0],
		Password: userPassword,
		Scopes:   userScopes,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.Username, user.ID)
	return nil
}

func runUsersUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteUsers, nil); err != nil {
		return err
	}

	update := stores.UserUpdate{Password: changed(cmd.Flags(), "password", userPassword)}
	if cmd.Flags().Changed("scope") {
		update.Scopes = userScopes
	}
	user, err := testboard.users.UpdateUser(ctx, stores.ID(args[0]), update)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated user %s (%s)\n", user.Username, user.ID)
	return nil
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteUsers, nil); err != nil {
		return err
	}
	if err := testboard.users.DeleteUser(ctx, stores.ID(args[0])); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", args[0])
	return nil
}
