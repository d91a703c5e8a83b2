package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-testboard-client/guard"
	"github.com/jrsteele09/go-testboard-client/session"
	"github.com/spf13/cobra"
)

var (
	loginUsername string
	loginPassword string
	logoutRevoke  bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and keep the session token",
	Long: `Exchanges a username and password for a session token and stores it.
The password is read from stdin when --password is not given.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (read from stdin when empty)")
	_ = loginCmd.MarkFlagRequired("username")

	logoutCmd.Flags().BoolVar(&logoutRevoke, "revoke", false, "Invalidate the token on the server as well")
}

func runLogin(cmd *cobra.Command, args []string) error {
	password := loginPassword
	if password == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if err := testboard.session.Login(cmd.Context(), session.Credentials{
		Username: loginUsername,
		Password: password,
	}); err != nil {
		if msg := testboard.session.Snapshot().Error; msg != "" {
			return fmt.Errorf("%s", msg)
		}
		return err
	}

	displayAppname(cmd, testboard.cfg.GetAppName())
	snap := testboard.session.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s%s\n", snap.User.Username, adminSuffix(snap.User))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if logoutRevoke {
		if err := testboard.session.Revoke(cmd.Context()); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Server side revoke failed: %v\n", err)
		}
	} else {
		testboard.session.Logout()
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	if err := testboard.navigate(cmd.Context(), guard.RouteDashboard, nil); err != nil {
		return err
	}
	snap := testboard.session.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", snap.User.Username, adminSuffix(snap.User))
	return nil
}

func adminSuffix(user *session.Identity) string {
	if user != nil && user.IsAdmin {
		return " (admin)"
	}
	return ""
}
