package dataaccess

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mikastratmann187-source/botdd/pkg/dataaccess/monitoring"
	"github.com/mikastratmann187-source/botdd/pkg/entities"
	"github.com/mikastratmann187-source/botdd/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
)

const (
	configDalName = "config_dal"
	configsTable  = "configs"
)

// ConfigDal is the data access layer for per-guild ticketing configuration.
type ConfigDal interface {
	// GetConfig gets the configuration for a guild. ErrNotFound is returned
	// when the guild has not been set up.
	GetConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error)

	// UpsertConfig creates or updates the configuration for a guild.
	UpsertConfig(ctx context.Context, cfg *entities.GuildConfig) error
}

type configDal struct {
	// l is the logger.
	l *slog.Logger

	// db is the database.
	db *bun.DB
}

// NewConfigDal creates a new configuration data access layer.
func NewConfigDal(l *slog.Logger) ConfigDal {
	l = l.With(slog.String(logging.KeyDal, configDalName))

	if DB == nil {
		l.Warn("DB is nil, this can cause a panic. Proceeding...")
	}

	return &configDal{
		l:  l,
		db: DB,
	}
}

func (d *configDal) GetConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error) {
	monitoring.PostgresTotalRequests.WithLabelValues(configDalName, "get_config", configsTable).Inc()
	t := prometheus.NewTimer(monitoring.PostgresLatency.WithLabelValues(configDalName, "get_config", configsTable))
	defer t.ObserveDuration()

	cfg := new(entities.GuildConfig)
	err := d.db.NewSelect().
		Model(cfg).
		Where("guild_id = ?", guildID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting config: %w", err)
	}
	return cfg, nil
}

func (d *configDal) UpsertConfig(ctx context.Context, cfg *entities.GuildConfig) error {
	monitoring.PostgresTotalRequests.WithLabelValues(configDalName, "upsert_config", configsTable).Inc()
	t := prometheus.NewTimer(monitoring.PostgresLatency.WithLabelValues(configDalName, "upsert_config", configsTable))
	defer t.ObserveDuration()

	_, err := d.db.NewInsert().
		Model(cfg).
		On("CONFLICT (guild_id) DO UPDATE").
		Set("ticket_category_id = EXCLUDED.ticket_category_id").
		Set("archive_category_id = EXCLUDED.archive_category_id").
		Set("support_role_id = EXCLUDED.support_role_id").
		Set("log_channel_id = EXCLUDED.log_channel_id").
		Set("transcript_channel_id = EXCLUDED.transcript_channel_id").
		Set("max_tickets = EXCLUDED.max_tickets").
		Set("cooldown_seconds = EXCLUDED.cooldown_seconds").
		Set("welcome_message = EXCLUDED.welcome_message").
		Set("mod_apps_open = EXCLUDED.mod_apps_open").
		Set("supporter_apps_open = EXCLUDED.supporter_apps_open").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error upserting config: %w", err)
	}
	return nil
}
