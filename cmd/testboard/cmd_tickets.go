package main

import (
	"fmt"

	"github.com/jrsteele09/go-testboard-client/guard"
	"github.com/jrsteele09/go-testboard-client/internal/utils"
	"github.com/jrsteele09/go-testboard-client/stores"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	ticketReference   string
	ticketDescription string
	ticketStatus      string
	ticketVersion     string

	bugFilters     map[string]string
	bugVersion     string
	bugTitle       string
	bugDescription string
	bugURL         string
	bugStatus      string
	bugCriticality string
)

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "List, create and update the tickets of a version",
}

var ticketsListCmd = &cobra.Command{
	Use:   "list <project-id> <version-id>",
	Short: "List tickets",
	Args:  cobra.ExactArgs(2),
	RunE:  runTicketsList,
}

var ticketsCreateCmd = &cobra.Command{
	Use:   "create <project-id> <version-id>",
	Short: "Create a ticket",
	Args:  cobra.ExactArgs(2),
	RunE:  runTicketsCreate,
}

var ticketsUpdateCmd = &cobra.Command{
	Use:   "update <project-id> <version-id> <ticket-id>",
	Short: "Update the given fields of a ticket",
	Args:  cobra.ExactArgs(3),
	RunE:  runTicketsUpdate,
}

var bugsCmd = &cobra.Command{
	Use:   "bugs",
	Short: "List, create and update the bugs of a project",
}

var bugsListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List bugs",
	Args:  cobra.ExactArgs(1),
	RunE:  runBugsList,
}

var bugsCreateCmd = &cobra.Command{
	Use:   "create <project-id>",
	Short: "Report a bug",
	Args:  cobra.ExactArgs(1),
	RunE:  runBugsCreate,
}

var bugsUpdateCmd = &cobra.Command{
	Use:   "update <project-id> <bug-id>",
	Short: "Update the given fields of a bug",
	Args:  cobra.ExactArgs(2),
	RunE:  runBugsUpdate,
}

func init() {
	ticketsCreateCmd.Flags().StringVar(&ticketReference, "reference", "", "Ticket reference (e.g. JIRA-123)")
	_ = ticketsCreateCmd.MarkFlagRequired("reference")
	for _, c := range []*cobra.Command{ticketsCreateCmd, ticketsUpdateCmd} {
		c.Flags().StringVar(&ticketDescription, "description", "", "Description")
		c.Flags().StringVar(&ticketStatus, "status", "", "Status")
	}
	ticketsUpdateCmd.Flags().StringVar(&ticketVersion, "version", "", "Move the ticket to another version")
	ticketsCmd.AddCommand(ticketsListCmd, ticketsCreateCmd, ticketsUpdateCmd)

	bugsListCmd.Flags().StringToStringVar(&bugFilters, "filter", nil, "Filter as key=value (repeatable)")
	for _, c := range []*cobra.Command{bugsCreateCmd, bugsUpdateCmd} {
		c.Flags().StringVar(&bugVersion, "version", "", "Affected version")
		c.Flags().StringVar(&bugTitle, "title", "", "Title")
		c.Flags().StringVar(&bugDescription, "description", "", "Description")
		c.Flags().StringVar(&bugURL, "url", "", "Tracker URL")
		c.Flags().StringVar(&bugStatus, "status", "", "Status")
		c.Flags().StringVar(&bugCriticality, "criticality", "", "Criticality")
	}
	_ = bugsCreateCmd.MarkFlagRequired("title")
	bugsCmd.AddCommand(bugsListCmd, bugsCreateCmd, bugsUpdateCmd)
}

func runTicketsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	projectID, versionID := args[0], args[1]
	if err := testboard.navigate(ctx, guard.RouteProjectVersionTickets, map[string]string{"id": projectID, "versionId": versionID}); err != nil {
		return err
	}
	if err := testboard.tickets.FetchTickets(ctx, stores.ID(projectID), stores.ID(versionID)); err != nil {
		return err
	}
	return printTickets(cmd, testboard.tickets.State().Items)
}

func runTicketsCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	projectID, versionID := args[0], args[1]
	if err := testboard.navigate(ctx, guard.RouteProjectVersionTickets, map[string]string{"id": projectID, "versionId": versionID}); err != nil {
		return err
	}
	ticket, err := testboard.tickets.CreateTicket(ctx, stores.ID(projectID), stores.ID(versionID), stores.TicketInput{
		Reference:   ticketReference,
		Description: ticketDescription,
		Status:      ticketStatus,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created ticket %s (%s)\n", ticket.Reference, ticket.ID)
	return nil
}

func runTicketsUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	projectID, versionID := args[0], args[1]
	if err := testboard.navigate(ctx, guard.RouteProjectVersionTickets, map[string]string{"id": projectID, "versionId": versionID}); err != nil {
		return err
	}

	flags := cmd.Flags()
	update := stores.TicketUpdate{
		Description: changed(flags, "description", ticketDescription),
		Status:      changed(flags, "status", ticketStatus),
		Version:     changed(flags, "version", ticketVersion),
	}
	ticket, err := testboard.tickets.UpdateTicket(ctx, stores.ID(projectID), stores.ID(versionID), stores.ID(args[2]), update)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated ticket %s (%s)\n", ticket.Reference, ticket.ID)
	return nil
}

func runBugsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteProjectBugs, map[string]string{"id": args[0]}); err != nil {
		return err
	}
	if err := testboard.bugs.FetchBugs(ctx, stores.ID(args[0]), stores.BugFilters(bugFilters)); err != nil {
		return err
	}

	t := newTable(cmd.OutOrStdout(), "ID", "VERSION", "TITLE", "STATUS", "CRITICALITY", "URL")
	for _, b := range testboard.bugs.State().Items {
		t.row(b.ID, orDash(b.Version), b.Title, orDash(b.Status), orDash(b.Criticality), orDash(b.URL))
	}
	return t.flush()
}

func runBugsCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteProjectBugs, map[string]string{"id": args[0]}); err != nil {
		return err
	}
	bug, err := testboard.bugs.CreateBug(ctx, stores.ID(args[0]), stores.BugInput{
		Version:     bugVersion,
		Title:       bugTitle,
		Description: bugDescription,
		URL:         bugURL,
		Status:      bugStatus,
		Criticality: bugCriticality,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reported bug %s (%s)\n", bug.Title, bug.ID)
	return nil
}

func runBugsUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteProjectBugs, map[string]string{"id": args[0]}); err != nil {
		return err
	}

	flags := cmd.Flags()
	update := stores.BugUpdate{
		Version:     changed(flags, "version", bugVersion),
		Title:       changed(flags, "title", bugTitle),
		Description: changed(flags, "description", bugDescription),
		URL:         changed(flags, "url", bugURL),
		Status:      changed(flags, "status", bugStatus),
		Criticality: changed(flags, "criticality", bugCriticality),
	}
	bug, err := testboard.bugs.UpdateBug(ctx, stores.ID(args[0]), stores.ID(args[1]), update)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated bug %s (%s)\n", bug.Title, bug.ID)
	return nil
}

func printTickets(cmd *cobra.Command, tickets []stores.Ticket) error {
	t := newTable(cmd.OutOrStdout(), "ID", "REFERENCE", "STATUS", "DESCRIPTION")
	for _, tk := range tickets {
		t.row(tk.ID, tk.Reference, orDash(tk.Status), orDash(tk.Description))
	}
	return t.flush()
}

// changed returns a pointer to value only when the flag was given, so that
// partial updates leave the other fields alone.
func changed(flags *pflag.FlagSet, name, value string) *string {
	if !flags.Changed(name) {
		return nil
	}
	return utils.Ptr(value)
}
