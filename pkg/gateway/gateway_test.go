package gateway_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/orderbridge/colissimo/pkg/colissimo"
	"github.com/orderbridge/colissimo/pkg/gateway"
	"github.com/orderbridge/colissimo/pkg/gateway/labelary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConverter implements RasterConverter without network access.
type stubConverter struct {
	fail  bool
	calls int
}

func (c *stubConverter) Convert(ctx context.Context, zpl []byte, opts *labelary.Options) (*labelary.Result, error) {
	c.calls++
	if c.fail {
		return nil, errors.New("labelary returned 500: rendering failed")
	}
	return &labelary.Result{ContentType: "image/png", Content: []byte("png-bytes")}, nil
}

func newTestGateway(t *testing.T, service gateway.Service, api colissimo.APIClient) *gateway.Gateway {
	t.Helper()
	return newTestGatewayWithConverter(t, service, api, &stubConverter{})
}

func newTestGatewayWithConverter(t *testing.T, service gateway.Service, api colissimo.APIClient, converter gateway.RasterConverter) *gateway.Gateway {
	t.Helper()

	platform, err := gateway.NewPlatform(
		gateway.Config{Login: "test-contract", Password: "secret", Service: service},
		gateway.Deps{
			API:       api,
			Converter: converter,
			Settings: gateway.SettingsMap{
				gateway.SettingAdminEmail: "shop@example.com",
				gateway.SettingSiteName:   "Example Shop",
			},
		},
	)
	require.NoError(t, err)

	gw, err := platform.CreateGateway("colissimo")
	require.NoError(t, err)
	return gw
}

func outboundShipment() *gateway.Shipment {
	return &gateway.Shipment{
		Weight: 1.2,
		Sale: &gateway.Sale{
			Number:    "S-10042",
			Email:     "jane@example.com",
			FirstName: "Jane",
			LastName:  "Doe",
		},
		SenderAddress: gateway.Address{
			Company:     "Example Shop",
			Street:      "10 rue de Rivoli",
			City:        "Paris",
			PostalCode:  "75001",
			CountryCode: "FR",
		},
		ReceiverAddress: gateway.Address{
			FirstName:   "Jane",
			LastName:    "Doe",
			Street:      "3 avenue Jean Jaures",
			City:        "Lyon",
			PostalCode:  "69007",
			CountryCode: "FR",
		},
	}
}

func TestGateway_Ship_Success(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	gw := newTestGateway(t, gateway.ServiceHomeUnsigned, mockAPI)

	s := outboundShipment()
	shipped, err := gw.Ship(context.Background(), s)

	require.NoError(t, err)
	assert.True(t, shipped)
	assert.True(t, strings.HasPrefix(s.TrackingNumber, "6A"))
	require.Len(t, s.Labels, 1)
	assert.Equal(t, gateway.LabelShipment, s.Labels[0].Type)
	assert.Equal(t, gateway.FormatPNG, s.Labels[0].Format)
	assert.Equal(t, gateway.SizeA6, s.Labels[0].Size)
	assert.Equal(t, []byte("png-bytes"), s.Labels[0].Content)
}

func TestGateway_Ship_AlreadyShipped(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	calls := 0
	mockAPI.OnGenerateLabel = func(ctx context.Context, req *colissimo.GenerateLabelRequest) (*colissimo.GenerateLabelResponse, error) {
		calls++
		return nil, errors.New("should not be called")
	}

	gw := newTestGateway(t, gateway.ServiceHomeUnsigned, mockAPI)

	s := outboundShipment()
	s.TrackingNumber = "6A12345678901"

	shipped, err := gw.Ship(context.Background(), s)

	require.NoError(t, err)
	assert.False(t, shipped)
	assert.Equal(t, 0, calls)
	assert.Equal(t, "6A12345678901", s.TrackingNumber)
}

func TestGateway_Ship_APIError(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	mockAPI.SimulateErrors = true

	gw := newTestGateway(t, gateway.ServiceHomeUnsigned, mockAPI)

	_, err := gw.Ship(context.Background(), outboundShipment())

	assert.ErrorIs(t, err, gateway.ErrCarrierCall)
}

func TestGateway_Ship_Rejected(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	mockAPI.OnGenerateLabel = func(ctx context.Context, req *colissimo.GenerateLabelRequest) (*colissimo.GenerateLabelResponse, error) {
		return &colissimo.GenerateLabelResponse{
			Success: false,
			Messages: []colissimo.Message{
				{ID: "30109", Type: "ERROR", Content: "Le mot de passe est incorrect"},
			},
		}, nil
	}

	gw := newTestGateway(t, gateway.ServiceHomeUnsigned, mockAPI)

	s := outboundShipment()
	_, err := gw.Ship(context.Background(), s)

	assert.ErrorIs(t, err, gateway.ErrCarrierRejected)
	assert.Contains(t, err.Error(), "[30109] Le mot de passe est incorrect")
	assert.Empty(t, s.TrackingNumber)
}

func TestGateway_Ship_MissingRelayPoint(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	calls := 0
	mockAPI.OnGenerateLabel = func(ctx context.Context, req *colissimo.GenerateLabelRequest) (*colissimo.GenerateLabelResponse, error) {
		calls++
		return nil, errors.New("should not be called")
	}

	gw := newTestGateway(t, gateway.ServiceRelay, mockAPI)

	_, err := gw.Ship(context.Background(), outboundShipment())

	assert.ErrorIs(t, err, gateway.ErrMissingRelayPoint)
	assert.Equal(t, 0, calls)
}

func TestGateway_Ship_RelayProductCodes(t *testing.T) {
	cases := map[string]colissimo.ProductCode{
		"BPR": colissimo.ProductBPR,
		"ACP": colissimo.ProductBPR,
		"CDI": colissimo.ProductBPR,
		"BDP": colissimo.ProductBDP,
		"A2P": colissimo.ProductA2P,
		"PCS": colissimo.ProductPCS,
	}

	for relayType, expected := range cases {
		t.Run(relayType, func(t *testing.T) {
			mockAPI := colissimo.NewMockAPIClient()
			var captured *colissimo.GenerateLabelRequest
			mockAPI.OnGenerateLabel = func(ctx context.Context, req *colissimo.GenerateLabelRequest) (*colissimo.GenerateLabelResponse, error) {
				captured = req
				return &colissimo.GenerateLabelResponse{
					Success:      true,
					ParcelNumber: "6A00000000001",
					Attachments: []colissimo.Attachment{
						{Type: colissimo.AttachmentLabel, Data: []byte("^XA^XZ")},
					},
				}, nil
			}

			gw := newTestGateway(t, gateway.ServiceRelay, mockAPI)

			s := outboundShipment()
			s.RelayPoint = &gateway.RelayPoint{ID: "620001", Type: relayType}

			_, err := gw.Ship(context.Background(), s)

			require.NoError(t, err)
			assert.Equal(t, expected, captured.Letter.Service.ProductCode)
			assert.Equal(t, "620001", captured.Letter.Parcel.PickupLocationID)
		})
	}
}

func TestGateway_Ship_UnknownRelayType(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	gw := newTestGateway(t, gateway.ServiceRelay, mockAPI)

	s := outboundShipment()
	s.RelayPoint = &gateway.RelayPoint{ID: "620001", Type: "ZZZ"}

	_, err := gw.Ship(context.Background(), s)

	assert.ErrorIs(t, err, gateway.ErrUnknownRelayType)
}

func TestGateway_Ship_WeightFallback(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	var captured *colissimo.GenerateLabelRequest
	mockAPI.OnGenerateLabel = func(ctx context.Context, req *colissimo.GenerateLabelRequest) (*colissimo.GenerateLabelResponse, error) {
		captured = req
		return &colissimo.GenerateLabelResponse{
			Success:      true,
			ParcelNumber: "6A12345",
			Attachments: []colissimo.Attachment{
				{Type: colissimo.AttachmentLabel, Data: []byte("^XA^XZ")},
			},
		}, nil
	}

	gw := newTestGateway(t, gateway.ServiceHomeUnsigned, mockAPI)

	s := outboundShipment()
	s.Weight = 0
	s.Items = []gateway.ShipmentItem{
		{Designation: "Mug", Quantity: 2, Weight: 0.5},
		{Designation: "Poster", Quantity: 1, Weight: 0.5},
	}

	shipped, err := gw.Ship(context.Background(), s)

	require.NoError(t, err)
	assert.True(t, shipped)
	assert.Equal(t, "1.500", captured.Letter.Parcel.Weight)
	assert.Equal(t, "6A12345", s.TrackingNumber)
	assert.Len(t, s.Labels, 1)
}

func TestGateway_Ship_InvalidWeight(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	gw := newTestGateway(t, gateway.ServiceHomeUnsigned, mockAPI)

	s := outboundShipment()
	s.Weight = 0
	s.Items = nil

	_, err := gw.Ship(context.Background(), s)

	assert.ErrorIs(t, err, gateway.ErrInvalidWeight)
}

func TestGateway_Ship_RasterFailure(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	converter := &stubConverter{fail: true}
	gw := newTestGatewayWithConverter(t, gateway.ServiceHomeUnsigned, mockAPI, converter)

	s := outboundShipment()
	_, err := gw.Ship(context.Background(), s)

	assert.ErrorIs(t, err, gateway.ErrRasterConversion)
	// The parcel exists carrier-side, the tracking number must survive.
	assert.NotEmpty(t, s.TrackingNumber)
	assert.Empty(t, s.Labels)
}

func TestGateway_Ship_OutboundRequest(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	var captured *colissimo.GenerateLabelRequest
	mockAPI.OnGenerateLabel = func(ctx context.Context, req *colissimo.GenerateLabelRequest) (*colissimo.GenerateLabelResponse, error) {
		captured = req
		return &colissimo.GenerateLabelResponse{
			Success:      true,
			ParcelNumber: "6A12345",
			Attachments: []colissimo.Attachment{
				{Type: colissimo.AttachmentLabel, Data: []byte("^XA^XZ")},
			},
		}, nil
	}

	gw := newTestGateway(t, gateway.ServiceHomeSigned, mockAPI)

	s := outboundShipment()
	_, err := gw.Ship(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, colissimo.ProductDOS, captured.Letter.Service.ProductCode)
	assert.Equal(t, colissimo.OutputZPL10x15300, captured.OutputFormat.OutputPrintingType)
	assert.Equal(t, "0", captured.OutputFormat.X)
	assert.Equal(t, "0", captured.OutputFormat.Y)
	assert.Equal(t, "1.200", captured.Letter.Parcel.Weight)
	assert.Equal(t, time.Now().Format("2006-01-02"), captured.Letter.Service.DepositDate)
	assert.Equal(t, "Example Shop", captured.Letter.Service.CommercialName)
	assert.Equal(t, "S-10042", captured.Letter.Sender.SenderParcelRef)
	assert.Equal(t, "shop@example.com", captured.Letter.Sender.Address.Email)
	assert.Equal(t, "jane@example.com", captured.Letter.Addressee.Address.Email)
}

func TestGateway_Ship_ReturnRequest(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	var captured *colissimo.GenerateLabelRequest
	mockAPI.OnGenerateLabel = func(ctx context.Context, req *colissimo.GenerateLabelRequest) (*colissimo.GenerateLabelResponse, error) {
		captured = req
		return &colissimo.GenerateLabelResponse{
			Success:      true,
			ParcelNumber: "6R12345",
			Attachments: []colissimo.Attachment{
				{Type: colissimo.AttachmentLabel, Data: []byte("^XA^XZ")},
			},
		}, nil
	}

	gw := newTestGateway(t, gateway.ServiceReturn, mockAPI)

	s := outboundShipment()
	s.Return = true
	s.Weight = 1.236

	_, err := gw.Ship(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, colissimo.ProductCORE, captured.Letter.Service.ProductCode)
	assert.Equal(t, colissimo.OutputZPL10x15203, captured.OutputFormat.OutputPrintingType)
	assert.Equal(t, colissimo.ReturnTypeMail, captured.OutputFormat.ReturnType)
	assert.Equal(t, "1.24", captured.Letter.Parcel.Weight)
	assert.Equal(t, time.Now().AddDate(0, 0, 1).Format("2006-01-02"), captured.Letter.Service.DepositDate)

	// Sender and receiver are swapped on returns.
	assert.Equal(t, "Lyon", captured.Letter.Sender.Address.City)
	assert.Equal(t, "Paris", captured.Letter.Addressee.Address.City)
	assert.Equal(t, "shop@example.com", captured.Letter.Addressee.Address.Email)
	assert.Equal(t, "S-10042", captured.Letter.Addressee.AddresseeParcelRef)

	require.Len(t, s.Labels, 1)
	assert.Equal(t, gateway.LabelReturn, s.Labels[0].Type)
}

func TestGateway_SupportsShipment(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()

	outboundGW := newTestGateway(t, gateway.ServiceHomeUnsigned, mockAPI)
	returnGW := newTestGateway(t, gateway.ServiceReturn, mockAPI)

	outbound := outboundShipment()
	returning := outboundShipment()
	returning.Return = true

	assert.NoError(t, outboundGW.SupportsShipment(outbound))
	assert.ErrorIs(t, outboundGW.SupportsShipment(returning), gateway.ErrUnsupportedShipment)
	assert.NoError(t, returnGW.SupportsShipment(returning))
	assert.ErrorIs(t, returnGW.SupportsShipment(outbound), gateway.ErrUnsupportedShipment)
}

func TestGateway_PrintLabel_ShipsFirst(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	gw := newTestGateway(t, gateway.ServiceHomeUnsigned, mockAPI)

	s := outboundShipment()
	labels, err := gw.PrintLabel(context.Background(), s)

	require.NoError(t, err)
	assert.NotEmpty(t, s.TrackingNumber)
	require.Len(t, labels, 1)
	assert.Equal(t, gateway.LabelShipment, labels[0].Type)
}

func TestGateway_PrintLabel_FiltersTypes(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	mockAPI.OnGenerateLabel = func(ctx context.Context, req *colissimo.GenerateLabelRequest) (*colissimo.GenerateLabelResponse, error) {
		return &colissimo.GenerateLabelResponse{
			Success:      true,
			ParcelNumber: "6A12345",
			Attachments: []colissimo.Attachment{
				{Type: colissimo.AttachmentLabel, Data: []byte("^XA^XZ")},
				{Type: colissimo.AttachmentCN23, Data: []byte("%PDF-1.4")},
			},
		}, nil
	}

	gw := newTestGateway(t, gateway.ServiceHomeUnsigned, mockAPI)

	s := outboundShipment()

	// Default selection excludes the customs form.
	labels, err := gw.PrintLabel(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, gateway.LabelShipment, labels[0].Type)

	// Explicit selection returns it.
	labels, err = gw.PrintLabel(context.Background(), s, gateway.LabelCustoms)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, gateway.LabelCustoms, labels[0].Type)
	assert.Equal(t, gateway.FormatPDF, labels[0].Format)
	assert.Equal(t, gateway.SizeA4, labels[0].Size)
}

func TestGateway_PrintLabel_NoLabels(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	gw := newTestGateway(t, gateway.ServiceHomeUnsigned, mockAPI)

	// Already shipped but nothing attached.
	s := outboundShipment()
	s.TrackingNumber = "6A12345678901"

	_, err := gw.PrintLabel(context.Background(), s)

	assert.ErrorIs(t, err, gateway.ErrLabelRetrieval)
}

func TestGateway_PrintLabel_Parcels(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	gw := newTestGateway(t, gateway.ServiceHomeUnsigned, mockAPI)

	s := outboundShipment()
	s.TrackingNumber = "6A12345678901"
	s.Parcels = []*gateway.Parcel{
		{Shipment: s, TrackingNumber: "6A1", Labels: []gateway.Label{{Type: gateway.LabelShipment}}},
		{Shipment: s, TrackingNumber: "6A2", Labels: []gateway.Label{{Type: gateway.LabelShipment}}},
	}

	labels, err := gw.PrintLabel(context.Background(), s)

	require.NoError(t, err)
	assert.Len(t, labels, 2)
}

func TestGateway_Track(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	gw := newTestGateway(t, gateway.ServiceHomeUnsigned, mockAPI)

	s := outboundShipment()
	status, err := gw.Track(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, status)

	s.TrackingNumber = "6A12345678901"
	status, err = gw.Track(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, status)
}

func TestGateway_Metadata(t *testing.T) {
	mockAPI := colissimo.NewMockAPIClient()
	gw := newTestGateway(t, gateway.ServiceRelay, mockAPI)

	assert.Equal(t, "colissimo", gw.Name())
	assert.Equal(t, gateway.ServiceRelay, gw.Service())
	assert.Equal(t, 30.0, gw.MaxWeight())
	assert.True(t, gw.SupportsRelay())
	assert.Contains(t, gw.Actions(), gateway.ActionShip)
}

func TestCustomsArticles(t *testing.T) {
	s := &gateway.Shipment{
		Items: []gateway.ShipmentItem{
			{Designation: strings.Repeat("x", 80), Quantity: 2, Weight: 0.3, NetPrice: 10.004},
			{Designation: "Poster", Quantity: 1, Weight: 0.1, NetPrice: 5.5},
		},
	}

	articles, total := gateway.CustomsArticles(s)

	require.Len(t, articles, 2)
	assert.Len(t, articles[0].Description, 64)
	assert.Equal(t, 10.0, articles[0].Value)
	assert.Equal(t, 25.5, total)
}
