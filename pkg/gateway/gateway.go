package gateway

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/orderbridge/colissimo/pkg/colissimo"
	"github.com/orderbridge/colissimo/pkg/gateway/labelary"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RasterConverter renders raw ZPL label data into a raster image. The
// labelary client is the production implementation.
type RasterConverter interface {
	Convert(ctx context.Context, zpl []byte, opts *labelary.Options) (*labelary.Result, error)
}

// Gateway performs shipping operations for one Colissimo service
// variant. Instances are built by the Platform and hold their carrier
// API and raster converter handles for their whole lifetime; a Gateway
// belongs to a single logical operation context and is not safe for
// concurrent use.
type Gateway struct {
	name      string
	service   Service
	api       colissimo.APIClient
	converter RasterConverter
	persister Persister
	settings  SettingsStore
	weights   WeightCalculator
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// Name returns the gateway instance name.
func (g *Gateway) Name() string {
	return g.name
}

// Service returns the service variant of this gateway.
func (g *Gateway) Service() Service {
	return g.service
}

// Actions returns the operations this gateway exposes.
func (g *Gateway) Actions() []Action {
	return []Action{ActionShip, ActionCancel, ActionPrintLabel, ActionTrack}
}

// MaxWeight returns the heaviest accepted parcel weight in kilograms.
func (g *Gateway) MaxWeight() float64 {
	return MaxWeightKG
}

// SupportsRelay reports whether the variant delivers to pickup points.
func (g *Gateway) SupportsRelay() bool {
	return g.service == ServiceRelay
}

// SupportsShipment verifies the shipment type matches this variant:
// the return variant only accepts return shipments, the other variants
// only outbound ones.
func (g *Gateway) SupportsShipment(s *Shipment) error {
	if g.service == ServiceReturn && !s.Return {
		return newError(g.name, ErrUnsupportedShipment, "service %q handles return shipments only", g.service)
	}
	if g.service != ServiceReturn && s.Return {
		return newError(g.name, ErrUnsupportedShipment, "service %q does not handle return shipments", g.service)
	}
	return nil
}

// Ship submits the shipment to Colissimo, stores the returned parcel
// number as tracking number, attaches the converted labels and persists
// the shipment. A shipment that already carries a tracking number is
// left untouched and reported as (false, nil).
func (g *Gateway) Ship(ctx context.Context, s *Shipment) (bool, error) {
	if err := g.SupportsShipment(s); err != nil {
		return false, err
	}

	if s.TrackingNumber != "" {
		g.logger.Ctx(ctx).Debug("Shipment already shipped",
			zap.String("gateway", g.name),
			zap.String("tracking_number", s.TrackingNumber),
		)
		return false, nil
	}

	req, err := g.buildLabelRequest(s)
	if err != nil {
		return false, err
	}

	g.logger.Ctx(ctx).Info("Generating Colissimo label",
		zap.String("gateway", g.name),
		zap.String("product_code", string(req.Letter.Service.ProductCode)),
		zap.String("weight", req.Letter.Parcel.Weight),
	)

	resp, err := g.api.GenerateLabel(ctx, req)
	if err != nil {
		return false, wrapError(g.name, ErrCarrierCall, err, "Colissimo API call failed")
	}

	if !resp.Success {
		if msg := resp.FirstError(); msg != nil {
			return false, newError(g.name, ErrCarrierRejected,
				"Colissimo API call failed\n[%s] %s", msg.ID, msg.Content)
		}
		return false, newError(g.name, ErrCarrierRejected, "Colissimo API call failed")
	}

	s.TrackingNumber = resp.ParcelNumber

	if err := g.attachLabels(ctx, resp, s); err != nil {
		return false, err
	}

	if err := g.persister.Persist(ctx, s); err != nil {
		return false, wrapError(g.name, ErrCarrierCall, err, "failed to persist shipment")
	}

	g.logger.Ctx(ctx).Info("Shipment shipped",
		zap.String("gateway", g.name),
		zap.String("tracking_number", s.TrackingNumber),
		zap.Int("labels", len(s.Labels)),
	)

	return true, nil
}

// PrintLabel ships the target's shipment if needed, then collects the
// attached labels filtered by type. Types default to the shipment
// label. A multi-parcel shipment aggregates its parcels' labels but is
// still shipped at the shipment level.
func (g *Gateway) PrintLabel(ctx context.Context, target LabelTarget, types ...LabelType) ([]Label, error) {
	s := target.RootShipment()

	if err := g.SupportsShipment(s); err != nil {
		return nil, err
	}

	if _, err := g.Ship(ctx, s); err != nil {
		return nil, err
	}

	if len(types) == 0 {
		types = []LabelType{LabelShipment}
	}

	var labels []Label
	var err error

	if shipment, ok := target.(*Shipment); ok && shipment.HasParcels() {
		for _, parcel := range shipment.Parcels {
			labels, err = appendLabels(g.name, labels, parcel, types)
			if err != nil {
				return nil, err
			}
		}
		return labels, nil
	}

	return appendLabels(g.name, labels, target, types)
}

func appendLabels(gateway string, labels []Label, target LabelTarget, types []LabelType) ([]Label, error) {
	attached := target.AttachedLabels()
	if len(attached) == 0 {
		return nil, newError(gateway, ErrLabelRetrieval, "failed to retrieve shipment labels")
	}

	for _, label := range attached {
		for _, t := range types {
			if label.Type == t {
				labels = append(labels, label)
				break
			}
		}
	}

	return labels, nil
}

// Track returns the live carrier status of a shipment. Empty when the
// shipment has no tracking number yet. Live status lookup requires a
// tracking collaborator that does not exist yet, so shipped shipments
// report empty too.
func (g *Gateway) Track(ctx context.Context, s *Shipment) (string, error) {
	if err := g.SupportsShipment(s); err != nil {
		return "", err
	}

	if s.TrackingNumber == "" {
		return "", nil
	}

	return "", nil
}

// ============================================================================
// Request building
// ============================================================================

func (g *Gateway) buildLabelRequest(s *Shipment) (*colissimo.GenerateLabelRequest, error) {
	if g.service == ServiceReturn {
		return g.buildReturnLabelRequest(s)
	}
	return g.buildOutboundLabelRequest(s)
}

func (g *Gateway) buildOutboundLabelRequest(s *Shipment) (*colissimo.GenerateLabelRequest, error) {
	code, err := g.productCode(s)
	if err != nil {
		return nil, err
	}

	weight, err := g.shipmentWeight(s)
	if err != nil {
		return nil, err
	}

	sender := MapAddress(s.SenderAddress, s.Sale)
	sender.Email = g.settings.GetParameter(SettingAdminEmail)

	req := &colissimo.GenerateLabelRequest{
		OutputFormat: colissimo.OutputFormat{
			X:                  "0",
			Y:                  "0",
			OutputPrintingType: colissimo.OutputZPL10x15300,
		},
		Letter: colissimo.Letter{
			Sender: colissimo.Sender{
				Address: sender,
			},
			Addressee: colissimo.Addressee{
				Address: MapAddress(s.ReceiverAddress, s.Sale),
			},
			Parcel: colissimo.Parcel{
				Weight: strconv.FormatFloat(weight, 'f', 3, 64),
			},
			Service: colissimo.Service{
				ProductCode:    code,
				DepositDate:    time.Now().Format("2006-01-02"),
				CommercialName: g.settings.GetParameter(SettingSiteName),
			},
		},
	}

	if s.Sale != nil {
		req.Letter.Sender.SenderParcelRef = s.Sale.Number
	}

	if g.service == ServiceRelay {
		// productCode already guaranteed the relay point is set.
		req.Letter.Parcel.PickupLocationID = s.RelayPoint.ID
	}

	return req, nil
}

// buildReturnLabelRequest builds the request for the return variant:
// sender and receiver are swapped, the label is mailed to the customer
// as a PDF and printed at 203dpi.
func (g *Gateway) buildReturnLabelRequest(s *Shipment) (*colissimo.GenerateLabelRequest, error) {
	weight, err := g.shipmentWeight(s)
	if err != nil {
		return nil, err
	}

	addressee := MapAddress(s.SenderAddress, s.Sale)
	addressee.Email = g.settings.GetParameter(SettingAdminEmail)

	req := &colissimo.GenerateLabelRequest{
		OutputFormat: colissimo.OutputFormat{
			OutputPrintingType: colissimo.OutputZPL10x15203,
			ReturnType:         colissimo.ReturnTypeMail,
		},
		Letter: colissimo.Letter{
			Sender: colissimo.Sender{
				Address: MapAddress(s.ReceiverAddress, s.Sale),
			},
			Addressee: colissimo.Addressee{
				Address: addressee,
			},
			Parcel: colissimo.Parcel{
				Weight: strconv.FormatFloat(math.Round(weight*100)/100, 'f', 2, 64),
			},
			Service: colissimo.Service{
				ProductCode: colissimo.ProductCORE,
				DepositDate: time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
			},
		},
	}

	if s.Sale != nil {
		req.Letter.Addressee.AddresseeParcelRef = s.Sale.Number
	}

	return req, nil
}

// shipmentWeight resolves the parcel weight in kilograms, falling back
// to the weight calculator when the stored weight is non-positive. The
// resolved weight must be positive.
func (g *Gateway) shipmentWeight(s *Shipment) (float64, error) {
	weight := s.Weight
	if weight <= 0 {
		weight = g.weights.CalculateShipment(s)
	}
	if weight <= 0 {
		return 0, newError(g.name, ErrInvalidWeight, "shipment weight must be positive")
	}
	return weight, nil
}

// productCode selects the Colissimo product for this variant.
func (g *Gateway) productCode(s *Shipment) (colissimo.ProductCode, error) {
	switch g.service {
	case ServiceHomeUnsigned:
		return colissimo.ProductDOM, nil
	case ServiceHomeSigned:
		return colissimo.ProductDOS, nil
	case ServiceReturn:
		return colissimo.ProductCORE, nil
	case ServiceRelay:
		return g.relayProductCode(s)
	}
	return "", newError(g.name, ErrUnsupportedService, "unexpected service %q", g.service)
}

func (g *Gateway) relayProductCode(s *Shipment) (colissimo.ProductCode, error) {
	if s.RelayPoint == nil {
		return "", newError(g.name, ErrMissingRelayPoint, "expected shipment with relay point")
	}

	switch s.RelayPoint.Type {
	case "BPR", "ACP", "CDI":
		return colissimo.ProductBPR, nil
	case "BDP":
		return colissimo.ProductBDP, nil
	case "A2P":
		return colissimo.ProductA2P, nil
	case "PCS":
		return colissimo.ProductPCS, nil
	}

	return "", newError(g.name, ErrUnknownRelayType, "unexpected relay point type %q", s.RelayPoint.Type)
}

// ============================================================================
// Label attachment
// ============================================================================

// attachLabels converts the response attachments into shipment labels.
// ZPL labels are rendered to PNG through the raster converter; a
// conversion failure surfaces after the tracking number is set, leaving
// a detectable partial state the caller can recover from.
func (g *Gateway) attachLabels(ctx context.Context, resp *colissimo.GenerateLabelResponse, s *Shipment) error {
	for _, attachment := range resp.Attachments {
		switch attachment.Type {
		case colissimo.AttachmentLabel:
			result, err := g.converter.Convert(ctx, attachment.Data, nil)
			if err != nil {
				return wrapError(g.name, ErrRasterConversion, err,
					"failed to create shipment label from ZPL data")
			}

			labelType := LabelShipment
			if s.Return {
				labelType = LabelReturn
			}

			s.AddLabel(Label{
				Type:    labelType,
				Format:  FormatPNG,
				Size:    SizeA6,
				Content: result.Content,
			})

		case colissimo.AttachmentCN23:
			s.AddLabel(Label{
				Type:    LabelCustoms,
				Format:  FormatPDF,
				Size:    SizeA4,
				Content: attachment.Data,
			})
		}
	}

	return nil
}

// ============================================================================
// Customs declarations
// ============================================================================

// CustomsArticles builds the CN23 article lines for an international
// shipment and returns them with the declared total. Declarations are
// not submitted with label requests yet; the remaining CN23 fields
// (HS codes, origin country) need sourcing from the catalog first.
func CustomsArticles(s *Shipment) ([]colissimo.Article, float64) {
	articles := make([]colissimo.Article, 0, len(s.Items))
	var total float64

	for _, item := range s.Items {
		description := item.Designation
		if len(description) > 64 {
			description = description[:64]
		}

		price := math.Round(item.NetPrice*100) / 100

		articles = append(articles, colissimo.Article{
			Description: description,
			Quantity:    item.Quantity,
			Weight:      item.Weight,
			Value:       price,
		})

		total += math.Round(price*float64(item.Quantity)*100) / 100
	}

	return articles, total
}
