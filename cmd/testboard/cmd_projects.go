package main

import (
	"fmt"

	"github.com/jrsteele09/go-testboard-client/guard"
	"github.com/jrsteele09/go-testboard-client/stores"
	"github.com/spf13/cobra"
)

var (
	projectName        string
	projectDescription string

	versionForce       bool
	versionStarted     string
	versionEndForecast string
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List, show and create projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectsList,
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project and its versions",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsShow,
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	Args:  cobra.NoArgs,
	RunE:  runProjectsCreate,
}

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List and create versions of a project",
}

var versionsListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List the versions of a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionsList,
}

var versionsCreateCmd = &cobra.Command{
	Use:   "create <project-id> <version>",
	Short: "Create a version",
	Args:  cobra.ExactArgs(2),
	RunE:  runVersionsCreate,
}

func init() {
	projectsCreateCmd.Flags().StringVar(&projectName, "name", "", "Project name")
	projectsCreateCmd.Flags().StringVar(&projectDescription, "description", "", "Project description")
	_ = projectsCreateCmd.MarkFlagRequired("name")
	projectsCmd.AddCommand(projectsListCmd, projectsShowCmd, projectsCreateCmd)

	versionsListCmd.Flags().BoolVar(&versionForce, "force", false, "Reload even when cached")
	versionsCreateCmd.Flags().StringVar(&versionStarted, "started", "", "Start date (YYYY-MM-DD)")
	versionsCreateCmd.Flags().StringVar(&versionEndForecast, "end-forecast", "", "Forecast end date (YYYY-MM-DD)")
	versionsCmd.AddCommand(versionsListCmd, versionsCreateCmd)
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteProjects, nil); err != nil {
		return err
	}
	if err := testboard.projects.FetchProjects(ctx); err != nil {
		return err
	}

	t := newTable(cmd.OutOrStdout(), "ID", "NAME", "DESCRIPTION")
	for _, p := range testboard.projects.State().Items {
		t.row(p.ID, p.Name, orDash(p.Description))
	}
	return t.flush()
}

func runProjectsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteProjectDetails, map[string]string{"id": args[0]}); err != nil {
		return err
	}
	project, err := testboard.projects.FetchProjectDetails(ctx, stores.ID(args[0]))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", project.Name, project.ID)
	if project.Description != "" {
		fmt.Fprintln(out, project.Description)
	}
	fmt.Fprintln(out)
	return printVersions(cmd, project.Versions)
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteProjectCreate, nil); err != nil {
		return err
	}
	project, err := testboard.projects.CreateProject(ctx, stores.ProjectInput{
		Name:        projectName,
		Description: projectDescription,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", project.Name, project.ID)
	return nil
}

func runVersionsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteProjectVersions, map[string]string{"id": args[0]}); err != nil {
		return err
	}
	if err := testboard.versions.FetchVersions(ctx, stores.ID(args[0]), versionForce); err != nil {
		return err
	}
	return printVersions(cmd, testboard.versions.State().Items)
}

func runVersionsCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteProjectVersions, map[string]string{"id": args[0]}); err != nil {
		return err
	}
	version, err := testboard.versions.CreateVersion(ctx, stores.ID(args[0]), stores.VersionInput{
		Version:     args[1],
		Started:     versionStarted,
		EndForecast: versionEndForecast,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created version %s (%s)\n", version.Version, version.ID)
	return nil
}

func printVersions(cmd *cobra.Command, versions []stores.Version) error {
	t := newTable(cmd.OutOrStdout(), "ID", "VERSION", "STATUS", "STARTED", "END FORECAST")
	for _, v := range versions {
		t.row(v.ID, v.Version, orDash(v.Status), orDash(v.Started), orDash(v.EndForecast))
	}
	return t.flush()
}
