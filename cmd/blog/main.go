// ブログゲートウェイのエントリポイント。
// serve でHTTPサーバーを起動し、migrate でSQLストアにスキーマを適用する。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/blog/internal/config"
	"github.com/nao1215/blog/internal/gateway"
	"github.com/nao1215/blog/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "blog",
		Short:         "blog is an authenticated CRUD gateway for blog posts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Default().WithError(err).Error("コマンドの実行に失敗")
		stop()
		os.Exit(1)
	}
}

// loadConfig は設定を読み込み、ロガーを初期化する。
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP gateway",
		Args:  cobra.NoArgs,
	}
	migrate := serveCmd.Flags().Bool("migrate", true, "apply pending migrations to a SQL store before serving")

	serveCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if *migrate {
			if err := migrateStore(ctx, st); err != nil {
				return err
			}
		}

		server := gateway.NewServer(gateway.ServerConfig{
			Port:         cfg.Port,
			FrontendURL:  cfg.FrontendURL,
			SecureCookie: cfg.SecureCookie,
		}, gateway.New(st))

		logger.Default().WithField("driver", cfg.StoreDriver).Infof("ブログゲートウェイを起動します: :%s", cfg.Port)
		return server.Run(ctx)
	}
	return serveCmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "apply pending schema migrations to a SQL store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			return migrateStore(cmd.Context(), st)
		},
	}
}
