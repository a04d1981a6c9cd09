package main

import (
	"fmt"
	"os"

	"github.com/palabra-app/palabra/internal/config"
	"github.com/palabra-app/palabra/internal/db"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// connectFromConfig loads the config file (falling back to defaults
// when it does not exist) and opens the configured database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	var cfg *config.Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = config.Default()
	} else {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
	}

	var gormDB *gorm.DB
	var err error
	switch cfg.Database.Driver {
	case "mysql":
		gormDB, err = db.Connect(cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	default:
		gormDB, err = db.ConnectLocal(cfg.Database.Path)
	}
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var (
		configPath string
		userName   string
		deckName   string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Palabra database",
		Long:  "Migrates all tables and seeds a user with a default deck and the reserved tags.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath, userName, deckName)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "palabra.yaml", "path to Palabra config file")
	cmd.Flags().StringVarP(&userName, "user", "u", "default", "name of the user to seed")
	cmd.Flags().StringVarP(&deckName, "deck", "d", "Español", "name of the default deck")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath, userName, deckName string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s database\n", cfg.Database.Driver)

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	user, err := db.SeedUser(gormDB, userName, deckName)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded user %q (id %d) with deck %q\n", user.Name, user.ID, deckName)

	fmt.Fprintln(out, "\nPalabra database initialized successfully.")
	return nil
}
