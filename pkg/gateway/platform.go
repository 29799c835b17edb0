package gateway

import (
	"context"
	"sync"

	"github.com/orderbridge/colissimo/pkg/colissimo"
	"github.com/orderbridge/colissimo/pkg/gateway/labelary"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PlatformName identifies this carrier platform.
const PlatformName = "Colissimo"

// Config is the platform and gateway configuration. Platform-level
// credentials serve as defaults for every gateway; per-gateway
// overrides may replace any field.
type Config struct {
	Login    string  // contract number
	Password string
	Service  Service
}

// Validate checks the configuration shape. Validation failures are
// construction-time errors, not per-call errors.
func (c Config) Validate() error {
	if c.Login == "" {
		return newError(PlatformName, ErrInvalidConfig, "login is required")
	}
	if c.Password == "" {
		return newError(PlatformName, ErrInvalidConfig, "password is required")
	}
	if c.Service != "" && !c.Service.Valid() {
		return newError(PlatformName, ErrInvalidConfig, "unexpected service %q", c.Service)
	}
	return nil
}

// merge overlays non-empty override fields onto the receiver.
func (c Config) merge(override Config) Config {
	if override.Login != "" {
		c.Login = override.Login
	}
	if override.Password != "" {
		c.Password = override.Password
	}
	if override.Service != "" {
		c.Service = override.Service
	}
	return c
}

// Deps are the collaborators shared by every gateway the platform
// creates. API and Converter default to the production web service and
// Labelary clients; tests substitute stubs.
type Deps struct {
	Settings  SettingsStore
	Persister Persister
	Weights   WeightCalculator
	API       colissimo.APIClient
	Converter RasterConverter
	Logger    *otelzap.Logger
	Tracer    trace.Tracer
}

// Platform creates Colissimo gateways from configuration.
type Platform struct {
	config Config
	deps   Deps
}

// NewPlatform validates the configuration and builds a platform.
func NewPlatform(cfg Config, deps Deps) (*Platform, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Service == "" {
		cfg.Service = ServiceHomeUnsigned
	}
	if deps.Weights == nil {
		deps.Weights = ItemWeightCalculator{}
	}
	if deps.Settings == nil {
		deps.Settings = SettingsMap{}
	}
	if deps.Persister == nil {
		deps.Persister = PersisterFunc(func(context.Context, *Shipment) error { return nil })
	}
	if deps.Logger == nil {
		deps.Logger = otelzap.New(zap.NewNop())
	}

	return &Platform{config: cfg, deps: deps}, nil
}

// Name returns the platform name.
func (p *Platform) Name() string {
	return PlatformName
}

// ConfigDefaults returns the configuration every gateway starts from.
func (p *Platform) ConfigDefaults() Config {
	return p.config
}

// CreateGateway builds a gateway named name for the service selected by
// the merged configuration. An unknown service is an error.
func (p *Platform) CreateGateway(name string, overrides ...Config) (*Gateway, error) {
	cfg := p.config
	for _, override := range overrides {
		cfg = cfg.merge(override)
	}

	if !cfg.Service.Valid() {
		return nil, newError(PlatformName, ErrUnsupportedService, "unexpected service %q", cfg.Service)
	}

	api := p.deps.API
	if api == nil {
		api = colissimo.NewHTTPAPIClient(colissimo.HTTPAPIClientConfig{
			Login:    cfg.Login,
			Password: cfg.Password,
		})
	}

	converter := p.deps.Converter
	if converter == nil {
		converter = labelary.NewClient(labelary.Config{})
	}

	return &Gateway{
		name:      name,
		service:   cfg.Service,
		api:       api,
		converter: converter,
		persister: p.deps.Persister,
		settings:  p.deps.Settings,
		weights:   p.deps.Weights,
		logger:    p.deps.Logger,
		tracer:    p.deps.Tracer,
	}, nil
}

// PrintLabels prints labels for several shipments of one service
// variant, one gateway per shipment since a gateway instance is not
// safe for concurrent use. An empty service selects the platform
// default. Per-shipment errors are collected without failing the batch.
func (p *Platform) PrintLabels(ctx context.Context, service Service, shipments []*Shipment, types ...LabelType) ([]Label, []error) {
	labels := make([]Label, 0, len(shipments))
	errs := make([]error, 0)
	mu := &sync.Mutex{}

	g, ctx := errgroup.WithContext(ctx)

	for _, shipment := range shipments {
		shipment := shipment
		g.Go(func() error {
			gw, err := p.CreateGateway(PlatformName, Config{Service: service})
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}

			printed, err := gw.PrintLabel(ctx, shipment, types...)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			labels = append(labels, printed...)
			return nil
		})
	}

	g.Wait()
	return labels, errs
}
