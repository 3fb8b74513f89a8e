package components

import (
	"context"
	"log/slog"

	"feasibility-backend/internal/broker"
	"feasibility-backend/internal/infra/resultstore"
	"feasibility-backend/internal/pkg/clock"
	"feasibility-backend/internal/pkg/config"

	"go.uber.org/fx"
)

var ResultStoreModule = fx.Module("resultstore",
	fx.Provide(
		func(cfg config.Config, clk clock.Clock) *resultstore.Store {
			return resultstore.New(cfg.ResultStore.TTL, clk)
		},
		NewCollector,
		NewJanitor,
	),
	fx.Invoke(func(*resultstore.Collector, *resultstore.Janitor) {}),
)

func NewCollector(lc fx.Lifecycle, store *resultstore.Store, bus *broker.Bus, logger *slog.Logger) *resultstore.Collector {
	c := resultstore.NewCollector(store, bus, logger)
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			c.Stop()
			return nil
		},
	})
	return c
}

func NewJanitor(lc fx.Lifecycle, cfg config.Config, store *resultstore.Store, brokers []broker.Client, logger *slog.Logger) *resultstore.Janitor {
	j := resultstore.NewJanitor(store, brokers, cfg.ResultStore.EvictInterval, logger)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			j.Start(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			j.Stop()
			return nil
		},
	})
	return j
}
