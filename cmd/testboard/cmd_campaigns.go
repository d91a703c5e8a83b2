package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-testboard-client/guard"
	"github.com/jrsteele09/go-testboard-client/stores"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	campaignVersion     string
	campaignDescription string

	scenarioLimit int
	scenarioSkip  int
)

var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "List, show and create test campaigns",
}

var campaignsListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List the campaigns of a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignsList,
}

var campaignsShowCmd = &cobra.Command{
	Use:   "show <project-id> <campaign-id>",
	Short: "Show a campaign board",
	Args:  cobra.ExactArgs(2),
	RunE:  runCampaignsShow,
}

var campaignsCreateCmd = &cobra.Command{
	Use:   "create <project-id>",
	Short: "Start a campaign for a version",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignsCreate,
}

var repositoryCmd = &cobra.Command{
	Use:   "repository",
	Short: "Browse and import the test repository of a project",
}

var repositoryEpicsCmd = &cobra.Command{
	Use:   "epics <project-id>",
	Short: "List epics",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepositoryEpics,
}

var repositoryFeaturesCmd = &cobra.Command{
	Use:   "features <project-id> <epic-id>",
	Short: "List the features of an epic",
	Args:  cobra.ExactArgs(2),
	RunE:  runRepositoryFeatures,
}

var repositoryScenariosCmd = &cobra.Command{
	Use:   "scenarios <project-id> <epic-id> <feature-id>",
	Short: "List the scenarios of a feature",
	Args:  cobra.ExactArgs(3),
	RunE:  runRepositoryScenarios,
}

var repositoryImportCmd = &cobra.Command{
	Use:   "import <project-id> <file.csv>",
	Short: "Import a repository CSV export",
	Args:  cobra.ExactArgs(2),
	RunE:  runRepositoryImport,
}

func init() {
	campaignsListCmd.Flags().StringVar(&campaignVersion, "version", "", "Only campaigns of this version")
	campaignsCreateCmd.Flags().StringVar(&campaignVersion, "version", "", "Version under test")
	campaignsCreateCmd.Flags().StringVar(&campaignDescription, "description", "", "Description")
	_ = campaignsCreateCmd.MarkFlagRequired("version")
	campaignsCmd.AddCommand(campaignsListCmd, campaignsShowCmd, campaignsCreateCmd)

	repositoryScenariosCmd.Flags().IntVar(&scenarioLimit, "limit", 0, "Maximum number of scenarios")
	repositoryScenariosCmd.Flags().IntVar(&scenarioSkip, "skip", 0, "Scenarios to skip")
	repositoryCmd.AddCommand(repositoryEpicsCmd, repositoryFeaturesCmd, repositoryScenariosCmd, repositoryImportCmd)
}

func runCampaignsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteProjectCampaigns, map[string]string{"id": args[0]}); err != nil {
		return err
	}
	if err := testboard.campaigns.FetchCampaigns(ctx, stores.ID(args[0]), campaignVersion); err != nil {
		return err
	}

	t := newTable(cmd.OutOrStdout(), "ID", "VERSION", "OCCURRENCE", "STATUS", "DESCRIPTION")
	for _, c := range testboard.campaigns.State().Items {
		t.row(c.ID, c.Version, c.Occurrence, orDash(c.Status), orDash(c.Description))
	}
	return t.flush()
}

func runCampaignsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteProjectCampaignBoard, map[string]string{"id": args[0], "campaignId": args[1]}); err != nil {
		return err
	}
	campaign, err := testboard.campaigns.FetchCampaignDetails(ctx, stores.ID(args[0]), stores.ID(args[1]))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Campaign %s: version %s #%d %s\n", campaign.ID, campaign.Version, campaign.Occurrence, orDash(campaign.Status))
	if campaign.Description != "" {
		fmt.Fprintln(out, campaign.Description)
	}
	fmt.Fprintln(out)
	t := newTable(out, "REFERENCE", "STATUS", "SUMMARY")
	for _, tk := range campaign.Tickets {
		t.row(tk.Reference, orDash(tk.Status), orDash(tk.Summary))
	}
	return t.flush()
}

func runCampaignsCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteProjectCampaigns, map[string]string{"id": args[0]}); err != nil {
		return err
	}
	campaign, err := testboard.campaigns.CreateCampaign(ctx, stores.ID(args[0]), stores.CampaignInput{
		Version:     campaignVersion,
		Description: campaignDescription,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created campaign %s for version %s\n", campaign.ID, campaign.Version)
	return nil
}

func runRepositoryEpics(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteProjectRepository, map[string]string{"id": args[0]}); err != nil {
		return err
	}
	if err := testboard.repository.FetchEpics(ctx, stores.ID(args[0])); err != nil {
		return err
	}

	t := newTable(cmd.OutOrStdout(), "ID", "NAME", "DESCRIPTION")
	for _, e := range testboard.repository.State().Epics {
		t.row(e.ID, e.Name, orDash(e.Description))
	}
	return t.flush()
}

func runRepositoryFeatures(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteProjectRepository, map[string]string{"id": args[0]}); err != nil {
		return err
	}
	if err := testboard.repository.FetchFeatures(ctx, stores.ID(args[0]), stores.ID(args[1])); err != nil {
		return err
	}

	t := newTable(cmd.OutOrStdout(), "ID", "NAME", "FILENAME", "TAGS")
	for _, f := range testboard.repository.State().Features {
		t.row(f.ID, f.Name, orDash(f.Filename), orDash(f.Tags))
	}
	return t.flush()
}

func runRepositoryScenarios(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteProjectRepository, map[string]string{"id": args[0]}); err != nil {
		return err
	}
	page := stores.ScenarioPage{Limit: scenarioLimit, Skip: scenarioSkip}
	if err := testboard.repository.FetchScenarios(ctx, stores.ID(args[0]), stores.ID(args[1]), stores.ID(args[2]), page); err != nil {
		return err
	}

	t := newTable(cmd.OutOrStdout(), "ID", "SCENARIO", "NAME", "OUTLINE")
	for _, s := range testboard.repository.State().Scenarios {
		t.row(s.ID, orDash(s.ScenarioID), s.Name, s.IsOutline)
	}
	return t.flush()
}

func runRepositoryImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := testboard.navigate(ctx, guard.RouteProjectRepository, map[string]string{"id": args[0]}); err != nil {
		return err
	}

	f, err := os.Open(args[1])
	if err != nil {
		return errors.Wrap(err, "open import file")
	}
	defer f.Close()

	if err := testboard.repository.ImportCSV(ctx, stores.ID(args[0]), filepath.Base(args[1]), f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d epics\n", filepath.Base(args[1]), len(testboard.repository.State().Epics))
	return nil
}
