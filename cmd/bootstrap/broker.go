package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"feasibility-backend/internal/broker"
	"feasibility-backend/internal/broker/aktin"
	"feasibility-backend/internal/broker/direct"
	"feasibility-backend/internal/broker/dsf"
	"feasibility-backend/internal/broker/mock"
	"feasibility-backend/internal/domain/query"
	"feasibility-backend/internal/pkg/clock"
	"feasibility-backend/internal/pkg/config"
	"feasibility-backend/internal/pkg/errs"
	"feasibility-backend/internal/pkg/oauth"

	"go.uber.org/fx"
)

const (
	busBufferSize  = 256
	busSendTimeout = 5 * time.Second
)

var BrokerModule = fx.Module("broker",
	fx.Provide(
		NewBus,
		NewSiteCatalogue,
		NewObfuscator,
		NewBrokers,
	),
)

func NewBus(lc fx.Lifecycle, logger *slog.Logger) *broker.Bus {
	bus := broker.NewBus(busBufferSize, busSendTimeout, logger)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			bus.Close()
			return nil
		},
	})
	return bus
}

func NewSiteCatalogue(cfg config.Config) (*broker.SiteCatalogue, error) {
	return broker.LoadSiteCatalogue(cfg.Broker.SitesFile)
}

func NewObfuscator(cfg config.Config) broker.Obfuscator {
	if cfg.Privacy.ObfuscateCounts {
		return broker.NewRandomObfuscator()
	}
	return broker.NoObfuscation()
}

type brokerDeps struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Config     config.Config
	Bus        *broker.Bus
	Sites      *broker.SiteCatalogue
	Obfuscator broker.Obfuscator
	Clock      clock.Clock
	Logger     *slog.Logger
}

// NewBrokers builds every variant listed in BROKER_ENABLED and ties background watchers to the app lifecycle.
func NewBrokers(d brokerDeps) ([]broker.Client, error) {
	clients := make([]broker.Client, 0, len(d.Config.Broker.Enabled))
	for _, name := range d.Config.Broker.Enabled {
		kind := query.BrokerType(name)
		reporter := broker.NewReporter(kind, d.Bus, d.Sites, d.Obfuscator, d.Logger)
		c, err := newBroker(kind, d.Config.Broker, reporter, d.Clock, d.Logger)
		if err != nil {
			return nil, errs.Wrapf(err, "failed to set up %s broker", name)
		}
		clients = append(clients, c)

		if r, ok := c.(broker.Runner); ok {
			d.Lifecycle.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					r.Start(ctx)
					return nil
				},
				OnStop: func(_ context.Context) error {
					r.Stop()
					return nil
				},
			})
		}
		d.Logger.Info("broker enabled", "broker", name)
	}
	return clients, nil
}

func newBroker(kind query.BrokerType, cfg config.BrokerConfig, reporter *broker.Reporter, clk clock.Clock, logger *slog.Logger) (broker.Client, error) {
	switch kind {
	case query.BrokerMock:
		return mock.New(cfg.Mock.Sites, reporter, logger), nil
	case query.BrokerDirect:
		return direct.New(cfg.Direct, &http.Client{Transport: directTransport(cfg.Direct, logger)}, reporter, logger)
	case query.BrokerAktin:
		return aktin.New(cfg.Aktin, nil, reporter, clk, logger)
	case query.BrokerDSF:
		var transport http.RoundTripper
		if oc := cfg.DSF.OAuth(); oc.Enabled() {
			transport = oauth.NewTokenCache(oc, logger, oauth.WithClock(clk)).Transport(nil)
		}
		return dsf.New(cfg.DSF, &http.Client{Transport: transport, Timeout: cfg.DSF.Timeout}, reporter, clk, logger)
	default:
		return nil, errs.Newf("unknown broker type %q", kind)
	}
}

func directTransport(cfg config.DirectBrokerConfig, logger *slog.Logger) http.RoundTripper {
	switch {
	case cfg.OAuth().Enabled():
		return oauth.NewTokenCache(cfg.OAuth(), logger).Transport(nil)
	case cfg.Username != "":
		return broker.BasicAuthTransport(cfg.Username, cfg.Password, nil)
	default:
		return nil
	}
}
