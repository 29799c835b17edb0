package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Colissimo web services
	ColissimoLogin         string `envconfig:"COLISSIMO_LOGIN"`
	ColissimoPassword      string `envconfig:"COLISSIMO_PASSWORD"`
	ColissimoService       string `envconfig:"COLISSIMO_SERVICE" default:"HomeUnsigned"`
	ColissimoPostageURL    string `envconfig:"COLISSIMO_POSTAGE_URL" default:"https://ws.colissimo.fr/sls-ws/SlsServiceWSRest/2.0"`
	ColissimoWithdrawalURL string `envconfig:"COLISSIMO_WITHDRAWAL_URL" default:"https://ws.colissimo.fr/pointretrait-ws-cxf/PointRetraitServiceWS/2.0"`
	ColissimoUseMock       bool   `envconfig:"COLISSIMO_USE_MOCK" default:"false"`

	// Labelary raster conversion
	LabelaryEndpoint string `envconfig:"LABELARY_ENDPOINT" default:"https://api.labelary.com/v1"`

	// Merchant identity stamped on labels
	AdminEmail string `envconfig:"ADMIN_EMAIL"`
	SiteName   string `envconfig:"SITE_NAME"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.claude.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"colissimo-bridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("colissimo.service", c.ColissimoService),
		attribute.Bool("colissimo.mock", c.ColissimoUseMock),
	}
}
