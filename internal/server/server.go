package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/orderbridge/colissimo/internal/telemetry"
	"github.com/orderbridge/colissimo/pkg/gateway"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP server for the Colissimo bridge.
type Server struct {
	port     int
	platform *gateway.Platform
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, platform *gateway.Platform, logger *otelzap.Logger) *Server {
	return &Server{
		port:     cfg.Port,
		platform: platform,
		logger:   logger,
		metrics:  telemetry.NewMetrics(),
	}
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /services", s.handleServices)
	mux.HandleFunc("POST /shipments", s.handleShip)
	mux.HandleFunc("POST /labels", s.handleLabels)
	mux.HandleFunc("POST /relay-points/search", s.handleRelaySearch)
	mux.HandleFunc("GET /relay-points/{id}", s.handleRelayGet)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type serviceInfo struct {
	Service string `json:"service"`
	Label   string `json:"label"`
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	services := gateway.Services()
	out := make([]serviceInfo, 0, len(services))
	for _, svc := range services {
		out = append(out, serviceInfo{Service: string(svc), Label: svc.Label()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": out})
}

type shipRequest struct {
	Service  string        `json:"service,omitempty"`
	Shipment shipmentInput `json:"shipment"`
}

type shipResponse struct {
	Shipped        bool         `json:"shipped"`
	TrackingNumber string       `json:"trackingNumber,omitempty"`
	Labels         []labelInfo  `json:"labels,omitempty"`
	Error          *errorDetail `json:"error,omitempty"`
}

func (s *Server) handleShip(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req shipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	gw, err := s.createGateway(req.Service)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	shipment := req.Shipment.toDomain()
	shipped, err := gw.Ship(r.Context(), shipment)
	s.metrics.RecordRequest("ship", string(gw.Service()), statusOf(err), time.Since(started).Seconds())
	if err != nil {
		s.metrics.RecordError(string(gw.Service()), errorKind(err))
		writeJSON(w, carrierStatus(err), shipResponse{Error: detailOf(err)})
		return
	}

	for _, l := range shipment.Labels {
		s.metrics.RecordLabel(string(gw.Service()), string(l.Type))
	}
	writeJSON(w, http.StatusOK, shipResponse{
		Shipped:        shipped,
		TrackingNumber: shipment.TrackingNumber,
		Labels:         labelInfos(shipment.Labels),
	})
}

type labelsRequest struct {
	Service   string          `json:"service,omitempty"`
	Types     []string        `json:"types,omitempty"`
	Shipments []shipmentInput `json:"shipments"`
}

type labelsResponse struct {
	Labels []labelInfo   `json:"labels"`
	Errors []errorDetail `json:"errors,omitempty"`
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req labelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if len(req.Shipments) == 0 {
		writeError(w, http.StatusBadRequest, "at least one shipment is required")
		return
	}

	types := make([]gateway.LabelType, 0, len(req.Types))
	for _, t := range req.Types {
		types = append(types, gateway.LabelType(t))
	}

	shipments := make([]*gateway.Shipment, 0, len(req.Shipments))
	for _, in := range req.Shipments {
		shipments = append(shipments, in.toDomain())
	}

	service := req.Service
	if service == "" {
		service = string(s.platform.ConfigDefaults().Service)
	}

	labels, errs := s.platform.PrintLabels(r.Context(), gateway.Service(service), shipments, types...)

	status := "ok"
	if len(errs) > 0 {
		status = "partial"
	}
	s.metrics.RecordRequest("print_labels", service, status, time.Since(started).Seconds())
	for _, l := range labels {
		s.metrics.RecordLabel(service, string(l.Type))
	}

	resp := labelsResponse{Labels: labelInfos(labels)}
	for _, err := range errs {
		s.metrics.RecordError(service, errorKind(err))
		resp.Errors = append(resp.Errors, *detailOf(err))
	}
	writeJSON(w, http.StatusOK, resp)
}

type relaySearchRequest struct {
	Service string       `json:"service,omitempty"`
	Address addressInput `json:"address"`
	Weight  float64      `json:"weight,omitempty"`
}

type relaySearchResponse struct {
	Points []gateway.RelayPoint `json:"points"`
}

func (s *Server) handleRelaySearch(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req relaySearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	service := req.Service
	if service == "" {
		service = string(gateway.ServiceRelay)
	}
	gw, err := s.createGateway(service)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	points, err := gw.ListRelayPoints(r.Context(), req.Address.toDomain(), req.Weight)
	s.metrics.RecordRequest("relay_search", service, statusOf(err), time.Since(started).Seconds())
	if err != nil {
		s.metrics.RecordError(service, errorKind(err))
		writeError(w, carrierStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, relaySearchResponse{Points: points})
}

func (s *Server) handleRelayGet(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	id := r.PathValue("id")
	gw, err := s.createGateway(string(gateway.ServiceRelay))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	point, err := gw.GetRelayPoint(r.Context(), id)
	s.metrics.RecordRequest("relay_get", string(gateway.ServiceRelay), statusOf(err), time.Since(started).Seconds())
	if err != nil {
		s.metrics.RecordError(string(gateway.ServiceRelay), errorKind(err))
		writeError(w, carrierStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, point)
}

func (s *Server) createGateway(service string) (*gateway.Gateway, error) {
	if service == "" {
		return s.platform.CreateGateway(gateway.PlatformName)
	}
	return s.platform.CreateGateway(gateway.PlatformName, gateway.Config{
		Service: gateway.Service(service),
	})
}

// ============================================================================
// Response helpers
// ============================================================================

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func detailOf(err error) *errorDetail {
	return &errorDetail{Kind: errorKind(err), Message: err.Error()}
}

func errorKind(err error) string {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.Kind != nil {
		return gwErr.Kind.Error()
	}
	return "internal"
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// carrierStatus maps gateway errors to HTTP statuses. Carrier-side
// failures surface as 502, caller mistakes as 422.
func carrierStatus(err error) int {
	switch {
	case errors.Is(err, gateway.ErrCarrierCall),
		errors.Is(err, gateway.ErrCarrierRejected),
		errors.Is(err, gateway.ErrRasterConversion):
		return http.StatusBadGateway
	case errors.Is(err, gateway.ErrUnsupportedService),
		errors.Is(err, gateway.ErrUnsupportedShipment),
		errors.Is(err, gateway.ErrMissingRelayPoint),
		errors.Is(err, gateway.ErrUnknownRelayType),
		errors.Is(err, gateway.ErrInvalidWeight):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
