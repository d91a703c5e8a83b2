package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-testboard-client/internal/config"
	"github.com/jrsteele09/go-testboard-client/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	pretty     bool

	// testboard is built before every command
	testboard *app
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "testboard",
	Short: "Command-line client for the testboard project tracker",
	Long: `testboard talks to the testboard REST API: projects, versions,
tickets, bugs, test campaigns, the test repository, users and the dashboard.

Log in once with 'testboard login'; the session token is kept between runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		level := cfg.GetLogLevel()
		if verbose {
			level = "debug"
		}
		logging.Setup(level, pretty, cmd.ErrOrStderr())

		closeApp()
		testboard, err = newApp(cmd.Context(), cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeApp()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		displayAppname(cmd, testboard.cfg.GetAppName())
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "Human readable log output")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(ticketsCmd)
	rootCmd.AddCommand(bugsCmd)
	rootCmd.AddCommand(campaignsCmd)
	rootCmd.AddCommand(repositoryCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(docsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	closeApp()
	if err != nil {
		log.Debug().Err(err).Msg("Command failed")
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// closeApp releases the wired client. Cobra skips post-run hooks when a
// command fails, so it is also called after Execute returns.
func closeApp() {
	if testboard != nil {
		testboard.Close()
		testboard = nil
	}
}

func displayAppname(cmd *cobra.Command, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(cmd.OutOrStdout(), myFigure.String())
}
