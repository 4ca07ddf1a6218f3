package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "todo/docs"
	"todo/internal/config"
	"todo/internal/database"
	"todo/internal/server"
)

// @title           Todo API
// @version         1.0
// @description     Personal tasks and tags with email-verified accounts.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "todo",
		Short:        "Todo API server",
		SilenceUsage: true,
	}
	cmd.AddCommand(serveCmd(), migrateCmd(), seedCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			s, err := server.Init(cfg)
			if err != nil {
				return err
			}
			if migrate {
				if err := database.Migrate(s.DB); err != nil {
					s.Close()
					return fmt.Errorf("❌ migration failed: %w", err)
				}
				cmd.Println("✅ Database migrated")
			}

			s.Run()
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(config.Load())
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			cmd.Println("✅ Database migrated")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(config.Load())
			if err != nil {
				return err
			}
			if err := database.Rollback(db); err != nil {
				return err
			}
			cmd.Println("✅ Rolled back one migration")
			return nil
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	var tasks int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Give every user default tags and sample tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(config.Load())
			if err != nil {
				return err
			}
			if err := database.NewSeeder(db, tasks).Run(context.Background()); err != nil {
				return err
			}
			cmd.Println("✅ Database seeded")
			return nil
		},
	}
	cmd.Flags().IntVar(&tasks, "tasks", 10, "Sample tasks per user")
	return cmd
}
