package bootstrap

import (
	"log/slog"

	"github.com/kec/eventhub/config"
	"github.com/kec/eventhub/internal/observability/statsd"
)

// BuildMetricsSink returns the StatsD client for cfg, or nil when metrics
// are disabled or the dial fails. A nil *statsd.Client drops every emit.
func BuildMetricsSink(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) *statsd.Client {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.IsEnabled() {
		return nil
	}

	client, err := statsd.NewClient(statsd.Config{
		Address:    cfg.StatsdAddress,
		Prefix:     cfg.Prefix,
		GlobalTags: map[string]string{"synthetic": boolTag(Synthetic)},
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	logger.Info("statsd metrics enabled", "addr", cfg.StatsdAddress, "prefix", cfg.Prefix)
	return client
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
