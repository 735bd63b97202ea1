// Command elections serves the presidential election dashboard and manages
// its dataset.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/election.report/internal/config"
	"github.com/banshee-data/election.report/internal/db"
	"github.com/banshee-data/election.report/internal/version"
)

type rootFlags struct {
	configPath string
	envFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:          "elections",
		Short:        "US presidential election dashboard",
		Version:      version.Version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(version.String() + "\n")
	root.PersistentFlags().StringVar(&flags.configPath, "config", config.DefaultConfigPath, "Path to the JSON config file")
	root.PersistentFlags().StringVar(&flags.envFile, "env", ".env", "Optional .env file with ELECTIONS_* overrides")

	root.AddCommand(
		newServeCmd(flags),
		newImportCmd(flags),
		newMigrateCmd(flags),
		newReportCmd(flags),
		newVersionCmd(),
	)
	return root
}

// load reads the configuration. A missing file at the default path is not an
// error; defaults and environment overrides still apply.
func (f *rootFlags) load(cmd *cobra.Command) (*config.Config, error) {
	path := f.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.LoadWithEnv(path, f.envFile)
	if err != nil {
		return nil, err
	}
	db.DevMode = cfg.GetDevMode()
	return cfg, nil
}

// openDB opens and migrates the configured database.
func openDB(cfg *config.Config) (*db.DB, error) {
	database, err := db.NewDB(cfg.GetDBPath())
	if err != nil {
		return nil, err
	}
	log.Printf("opened database %s", database.Path())
	return database, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
