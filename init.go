package main

import (
	"context"

	"github.com/orderbridge/colissimo/internal/config"
	"github.com/orderbridge/colissimo/internal/telemetry"
	"github.com/orderbridge/colissimo/pkg/colissimo"
	"github.com/orderbridge/colissimo/pkg/gateway"
	"github.com/orderbridge/colissimo/pkg/gateway/labelary"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

func initPlatform(cfg *config.Config, logger *otelzap.Logger) (*gateway.Platform, error) {
	var api colissimo.APIClient
	if cfg.ColissimoUseMock {
		api = &colissimo.MockAPIClient{}
	} else {
		api = colissimo.NewHTTPAPIClient(colissimo.HTTPAPIClientConfig{
			Login:         cfg.ColissimoLogin,
			Password:      cfg.ColissimoPassword,
			PostageURL:    cfg.ColissimoPostageURL,
			WithdrawalURL: cfg.ColissimoWithdrawalURL,
		})
	}

	return gateway.NewPlatform(
		gateway.Config{
			Login:    cfg.ColissimoLogin,
			Password: cfg.ColissimoPassword,
			Service:  gateway.Service(cfg.ColissimoService),
		},
		gateway.Deps{
			Settings: gateway.SettingsMap{
				gateway.SettingAdminEmail: cfg.AdminEmail,
				gateway.SettingSiteName:   cfg.SiteName,
			},
			Persister: gateway.PersisterFunc(func(_ context.Context, s *gateway.Shipment) error {
				logger.Info("Shipment persisted",
					zap.String("tracking_number", s.TrackingNumber),
					zap.Int("labels", len(s.Labels)),
				)
				return nil
			}),
			API: api,
			Converter: labelary.NewClient(labelary.Config{
				Endpoint: cfg.LabelaryEndpoint,
			}),
			Logger: logger,
			Tracer: otel.GetTracerProvider().Tracer(cfg.ServiceName),
		},
	)
}
