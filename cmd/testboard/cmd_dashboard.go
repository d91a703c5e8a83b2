package main

import (
	"fmt"

	"github.com/jrsteele09/go-testboard-client/guard"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Summarise tickets and bugs per project version",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Read the bundled documentation",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocsList,
}

var docsShowCmd = &cobra.Command{
	Use:   "show <document>",
	Short: "Render a document to HTML",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsShow,
}

func init() {
	docsCmd.AddCommand(docsListCmd, docsShowCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteDashboard, nil); err != nil {
		return err
	}
	if err := testboard.dashboard.FetchDashboard(ctx); err != nil {
		return err
	}

	t := newTable(cmd.OutOrStdout(), "PROJECT", "VERSION", "STATUS", "TICKETS", "BUGS")
	for _, p := range testboard.dashboard.State().Items {
		if len(p.Versions) == 0 {
			t.row(p.Name, "-", "-", 0, 0)
			continue
		}
		for _, v := range p.Versions {
			t.row(p.Name, v.Version, orDash(v.Status), v.Tickets, v.Bugs)
		}
	}
	return t.flush()
}

func runDocsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteDocumentation, nil); err != nil {
		return err
	}
	if err := testboard.docs.FetchFiles(ctx); err != nil {
		return err
	}

	t := newTable(cmd.OutOrStdout(), "NAME", "TITLE")
	for _, f := range testboard.docs.State().Files {
		t.row(f.Name, f.Title)
	}
	return t.flush()
}

func runDocsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteDocumentation, nil); err != nil {
		return err
	}
	if err := testboard.docs.FetchContent(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), testboard.docs.State().CurrentHTML)
	return nil
}
