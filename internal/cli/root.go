// Package cli содержит команды civic-incidents: HTTP-сервер, миграции и обслуживание данных.
package cli

import (
	"github.com/shenikar/civic_incident_tracker/internal/config"
	"github.com/shenikar/civic_incident_tracker/pkg/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootOptions - глобальные флаги всех команд
type RootOptions struct {
	LogLevel string // переопределяет LOG_LEVEL, если задан
}

// NewRootCommand создает корневую команду
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "civic-incidents",
		Short: "Civic incident reporting service",
		Long: `Civic incident reporting service.

Citizens report incidents, administrators move them through the review
workflow, every status change is kept in an immutable history.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewDetachUserCommand(opts))

	return cmd
}

// load читает конфигурацию и создает логгер с учетом флагов
func (o *RootOptions) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	return cfg, logger.New(cfg.LogLevel, cfg.LogFormat), nil
}
