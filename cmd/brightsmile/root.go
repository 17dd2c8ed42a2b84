package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hitoshi/brightsmile/internal/app"
	"github.com/hitoshi/brightsmile/internal/config"
)

const defaultServerPort = "8080"

// newRootCmd はサブコマンドを登録したルートコマンドを返す。
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "brightsmile",
		Short:         "BrightSmile dental clinic website",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newCleanupCmd(),
		newHealthcheckCmd(),
	)
	return root
}

// withConfig はログと設定を初期化してからrunを呼び出すRunE関数を返す。
func withConfig(run func(cmd *cobra.Command, cfg *config.Config) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := app.Init(os.Stdout)
		if err != nil {
			return err
		}
		return run(cmd, cfg)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply migrations, seed data and start the web server",
		Args:  cobra.NoArgs,
		RunE: withConfig(func(cmd *cobra.Command, cfg *config.Config) error {
			return app.RunServe(cmd.Context(), cfg)
		}),
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply all pending database migrations",
		Args:  cobra.NoArgs,
		RunE: withConfig(func(_ *cobra.Command, cfg *config.Config) error {
			return app.RunMigrate(cfg)
		}),
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the admin user and default services if missing",
		Args:  cobra.NoArgs,
		RunE: withConfig(func(cmd *cobra.Command, cfg *config.Config) error {
			return app.RunSeed(cmd.Context(), cfg)
		}),
	}
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired login sessions",
		Args:  cobra.NoArgs,
		RunE: withConfig(func(cmd *cobra.Command, cfg *config.Config) error {
			return app.RunCleanup(cmd.Context(), cfg)
		}),
	}
}

// newHealthcheckCmd はコンテナのヘルスチェック用。
// DATABASE_URLを持たない環境でも動くよう設定の読み込みは行わない。
func newHealthcheckCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe the local /health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if port == "" {
				port = defaultServerPort
			}
			return app.RunHealthcheck(port)
		},
	}
	cmd.Flags().StringVar(&port, "port", os.Getenv("SERVER_PORT"), "server port to probe")
	return cmd
}
