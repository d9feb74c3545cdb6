package command

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kashguard/go-eos-signer/internal/api"
	"github.com/kashguard/go-eos-signer/internal/config"
	"github.com/kashguard/go-eos-signer/internal/util"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

// NewSubcommandGroup 创建只用于分组的父命令
func NewSubcommandGroup(use string, short string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				log.Error().Err(err).Msg("Failed to print help")
			}
		},
	}
	cmd.AddCommand(subcommands...)
	return cmd
}

// LoadConfig 读取环境配置并初始化日志
func LoadConfig() (config.Signer, error) {
	cfg := config.DefaultSignerConfigFromEnv()
	util.ConfigureLogger(util.LoggerConfig{
		Level:              cfg.Logger.Level,
		PrettyPrintConsole: cfg.Logger.PrettyPrintConsole,
	})
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// WithServer 初始化 Server 后执行 fn，fn 返回后关闭 Server
// mutate 可在初始化前覆盖配置（通常来自命令行参数）
func WithServer(owner *cobra.Command, mutate func(cfg *config.Signer), fn func(ctx context.Context, s *api.Server) error) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if mutate != nil {
		mutate(&cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	parent := owner.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := api.InitNewServer(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to initialize signer")
	}
	s.StartMetrics()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, err := range s.Shutdown(shutdownCtx) {
			log.Warn().Err(err).Msg("Error while shutting down signer")
		}
	}()

	return fn(ctx, s)
}
