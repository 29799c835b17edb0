package colissimo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGenerateLabel func(ctx context.Context, req *GenerateLabelRequest) (*GenerateLabelResponse, error)
	OnFindPoints    func(ctx context.Context, req *FindPointsRequest) (*FindPointsResponse, error)
	OnFindPoint     func(ctx context.Context, req *FindPointRequest) (*FindPointResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// GenerateLabel returns a mock postage response with a ZPL label attachment.
func (m *MockAPIClient) GenerateLabel(ctx context.Context, req *GenerateLabelRequest) (*GenerateLabelResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Description: "Simulated API error"}
	}

	if m.OnGenerateLabel != nil {
		return m.OnGenerateLabel(ctx, req)
	}

	parcelNumber := fmt.Sprintf("6A%d", 10000000000+time.Now().UnixNano()%90000000000)

	return &GenerateLabelResponse{
		Success:      true,
		Messages:     []Message{{ID: "0", Type: "INFOS", Content: "La requête a été traitée avec succès"}},
		ParcelNumber: parcelNumber,
		Attachments: []Attachment{
			{Type: AttachmentLabel, Data: []byte("^XA^FO50,50^A0N,50,50^FD" + parcelNumber + "^FS^XZ")},
		},
	}, nil
}

// FindPoints returns mock pickup points around the searched address.
func (m *MockAPIClient) FindPoints(ctx context.Context, req *FindPointsRequest) (*FindPointsResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Description: "Simulated API error"}
	}

	if m.OnFindPoints != nil {
		return m.OnFindPoints(ctx, req)
	}

	return &FindPointsResponse{
		Success: true,
		Points: []PickupPoint{
			mockPoint("BPR", req.ZipCode, req.City, 250),
			mockPoint("A2P", req.ZipCode, req.City, 480),
			mockPoint("BDP", req.ZipCode, req.City, 1200),
		},
	}, nil
}

// FindPoint returns a single mock pickup point.
func (m *MockAPIClient) FindPoint(ctx context.Context, req *FindPointRequest) (*FindPointResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Description: "Simulated API error"}
	}

	if m.OnFindPoint != nil {
		return m.OnFindPoint(ctx, req)
	}

	point := mockPoint("A2P", "75011", "PARIS", 320)
	point.ID = req.ID
	return &FindPointResponse{
		Success: true,
		Point:   &point,
	}, nil
}

func mockPoint(pointType, zipCode, city string, distance int) PickupPoint {
	return PickupPoint{
		ID:             "62" + uuid.New().String()[:6],
		Name:           "RELAIS " + city,
		Address1:       "12 RUE DE LA POSTE",
		ZipCode:        zipCode,
		City:           city,
		CountryCode:    "FR",
		DistanceMeters: distance,
		Latitude:       "48.8566",
		Longitude:      "2.3522",
		Type:           pointType,
		HoursMonday:    "09:00-12:00 14:00-19:00",
		HoursTuesday:   "09:00-12:00 14:00-19:00",
		HoursWednesday: "09:00-12:00 14:00-19:00",
		HoursThursday:  "09:00-12:00 14:00-19:00",
		HoursFriday:    "09:00-12:00 14:00-19:00",
		HoursSaturday:  "09:00-12:00",
		HoursSunday:    "000:00-00:00",
	}
}

var _ APIClient = (*MockAPIClient)(nil)
