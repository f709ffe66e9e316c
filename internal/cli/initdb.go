package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"telegram_parser/internal/storage"
)

func init() {
	var (
		chHost string
		chPort int
		chDB   string
		chUser string
		chPass string
		pgHost string
		pgPort int
		pgDB   string
		pgUser string
		pgPass string
	)

	defaults := storage.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "initdb",
		Short: "Create the ClickHouse and PostgreSQL schemas",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := storage.Config{
				ClickHouse: storage.ClickHouseConfig{
					Host: chHost, Port: chPort, Database: chDB,
					User: chUser, Password: chPass,
				},
				Postgres: storage.PostgresConfig{
					Host: pgHost, Port: pgPort, Database: pgDB,
					User: pgUser, Password: pgPass,
				},
			}

			db, err := storage.Open(cmd.Context(), cfg)
			if err != nil {
				exitErr("open databases", err)
			}
			defer func() { _ = db.Close() }()

			if err := db.CreateSchemas(cmd.Context()); err != nil {
				exitErr("create schemas", err)
			}
			fmt.Println("schemas created")
		},
	}

	cmd.Flags().StringVar(&chHost, "ch-host", defaults.ClickHouse.Host, "ClickHouse host")
	cmd.Flags().IntVar(&chPort, "ch-port", defaults.ClickHouse.Port, "ClickHouse native port")
	cmd.Flags().StringVar(&chDB, "ch-db", defaults.ClickHouse.Database, "ClickHouse database")
	cmd.Flags().StringVar(&chUser, "ch-user", defaults.ClickHouse.User, "ClickHouse user")
	cmd.Flags().StringVar(&chPass, "ch-pass", defaults.ClickHouse.Password, "ClickHouse password")
	cmd.Flags().StringVar(&pgHost, "pg-host", defaults.Postgres.Host, "PostgreSQL host")
	cmd.Flags().IntVar(&pgPort, "pg-port", defaults.Postgres.Port, "PostgreSQL port")
	cmd.Flags().StringVar(&pgDB, "pg-db", defaults.Postgres.Database, "PostgreSQL database")
	cmd.Flags().StringVar(&pgUser, "pg-user", defaults.Postgres.User, "PostgreSQL user")
	cmd.Flags().StringVar(&pgPass, "pg-pass", defaults.Postgres.Password, "PostgreSQL password")

	RootCmd.AddCommand(cmd)
}
