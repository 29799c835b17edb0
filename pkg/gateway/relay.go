package gateway

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/orderbridge/colissimo/pkg/colissimo"
	"go.uber.org/zap"
)

// ListRelayPoints searches Colissimo pickup points around the given
// address. Only the relay variant supports pickup points. The search is
// keyed by postal code, city, country and a next-day shipping date; the
// request identifier is a deterministic hash of those fields so that
// identical searches are idempotent from the caller's perspective.
func (g *Gateway) ListRelayPoints(ctx context.Context, addr Address, weight float64) ([]RelayPoint, error) {
	if !g.SupportsRelay() {
		return nil, newError(g.name, ErrUnsupportedService, "service %q does not support relay points", g.service)
	}

	// TODO shift the shipping date with stock availability.
	shippingDate := time.Now().AddDate(0, 0, 1)

	req := &colissimo.FindPointsRequest{
		ZipCode:      addr.PostalCode,
		City:         addr.City,
		CountryCode:  "FR",
		Address:      addr.Street,
		ShippingDate: shippingDate,
	}
	req.RequestID = relayRequestID(req)

	g.logger.Ctx(ctx).Info("Searching relay points",
		zap.String("gateway", g.name),
		zap.String("zip_code", req.ZipCode),
		zap.String("city", req.City),
		zap.String("request_id", req.RequestID),
	)

	resp, err := g.api.FindPoints(ctx, req)
	if err != nil {
		return nil, wrapError(g.name, ErrCarrierCall, err, "Colissimo API call failed")
	}

	if !resp.Success {
		if len(resp.Messages) > 0 {
			return nil, newError(g.name, ErrCarrierCall, "%s", resp.Messages[0].Content)
		}
		return nil, newError(g.name, ErrCarrierCall, "Colissimo API call failed")
	}

	points := make([]RelayPoint, len(resp.Points))
	for i := range resp.Points {
		points[i] = transformPoint(&resp.Points[i])
	}

	return points, nil
}

// GetRelayPoint fetches a single pickup point by its identifier.
func (g *Gateway) GetRelayPoint(ctx context.Context, id string) (*RelayPoint, error) {
	if !g.SupportsRelay() {
		return nil, newError(g.name, ErrUnsupportedService, "service %q does not support relay points", g.service)
	}

	req := &colissimo.FindPointRequest{
		ID:   id,
		Date: time.Now().AddDate(0, 0, 1),
	}

	resp, err := g.api.FindPoint(ctx, req)
	if err != nil {
		return nil, wrapError(g.name, ErrCarrierCall, err, "Colissimo API call failed")
	}

	if !resp.Success || resp.Point == nil {
		return nil, newError(g.name, ErrCarrierCall, "Colissimo API call failed")
	}

	point := transformPoint(resp.Point)
	return &point, nil
}

// relayRequestID derives the deterministic request identifier of a
// pickup point search.
func relayRequestID(req *colissimo.FindPointsRequest) string {
	hash := md5.Sum([]byte(
		req.ZipCode + req.City + req.CountryCode +
			req.ShippingDate.Format("2006-01-02") + req.Address,
	))
	return hex.EncodeToString(hash[:])
}

// transformPoint normalizes a carrier pickup point into a RelayPoint.
func transformPoint(point *colissimo.PickupPoint) RelayPoint {
	latitude, _ := strconv.ParseFloat(point.Latitude, 64)
	longitude, _ := strconv.ParseFloat(point.Longitude, 64)

	country := point.CountryCode
	if country == "" {
		country = "FR"
	}

	return RelayPoint{
		ID:             point.ID,
		Name:           point.Name,
		Street:         strings.TrimSpace(point.Address1),
		Complement:     strings.TrimSpace(point.Address2),
		Supplement:     strings.TrimSpace(point.Address3),
		PostalCode:     point.ZipCode,
		City:           point.City,
		CountryCode:    country,
		DistanceMeters: point.DistanceMeters,
		Latitude:       latitude,
		Longitude:      longitude,
		Type:           point.Type,
		OpeningHours:   parseOpeningHours(point),
	}
}
