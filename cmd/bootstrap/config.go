package bootstrap

import (
	"log/slog"

	"feasibility-backend/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
	),
	fx.Invoke(logConfig),
)

// logConfig records the settings that shape query handling. Secrets stay out of the log.
func logConfig(cfg config.Config, logger *slog.Logger) {
	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"brokers", cfg.Broker.Enabled,
		"obfuscate_counts", cfg.Privacy.ObfuscateCounts,
		"soft_quota", cfg.Quota.SoftAmount,
		"soft_quota_interval", cfg.Quota.SoftInterval.String(),
		"hard_quota", cfg.Quota.HardAmount,
		"hard_quota_interval", cfg.Quota.HardInterval.String(),
		"result_ttl", cfg.ResultStore.TTL.String())
}
