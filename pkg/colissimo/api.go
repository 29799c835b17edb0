package colissimo

import (
	"context"
	"time"
)

// APIClient defines the interface for the Colissimo web service operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GenerateLabel submits a postage request and returns the parcel
	// number plus the raw label artifacts.
	GenerateLabel(ctx context.Context, req *GenerateLabelRequest) (*GenerateLabelResponse, error)

	// FindPoints searches pickup points around an address.
	FindPoints(ctx context.Context, req *FindPointsRequest) (*FindPointsResponse, error)

	// FindPoint fetches a single pickup point by identifier.
	FindPoint(ctx context.Context, req *FindPointRequest) (*FindPointResponse, error)
}

// ProductCode selects a Colissimo service tier on a postage request.
type ProductCode string

const (
	// Domestic home delivery.
	ProductDOM ProductCode = "DOM" // without signature
	ProductDOS ProductCode = "DOS" // with signature

	// Pickup point delivery.
	ProductBPR ProductCode = "BPR" // post office
	ProductBDP ProductCode = "BDP" // parcel drop-off
	ProductA2P ProductCode = "A2P" // pickup station / relay merchant
	ProductPCS ProductCode = "PCS" // pickup station (Comptoir)

	// Returns.
	ProductCORE ProductCode = "CORE" // domestic return

	// Overseas variants, accepted by the API but not selected by this
	// integration yet.
	ProductCOM  ProductCode = "COM"
	ProductCDS  ProductCode = "CDS"
	ProductCORI ProductCode = "CORI"
	ProductECO  ProductCode = "ECO"
)

// Output printing types for the generated label.
const (
	OutputZPL10x15300 = "ZPL_10x15_300dpi"
	OutputZPL10x15203 = "ZPL_10x15_203dpi"
	OutputPDF10x15300 = "PDF_10x15_300dpi"
	OutputPDFA4300    = "PDF_A4_300dpi"
)

// ReturnTypeMail asks the API to mail the return label as a PDF.
const ReturnTypeMail = "SendPDFByMail"

// ============================================================================
// Postage (generateLabel) request/response types
// ============================================================================

// GenerateLabelRequest represents a Colissimo postage request.
// Credentials are injected by the transport, callers fill the rest.
type GenerateLabelRequest struct {
	ContractNumber string       `json:"contractNumber"`
	Password       string       `json:"password"`
	OutputFormat   OutputFormat `json:"outputFormat"`
	Letter         Letter       `json:"letter"`
}

// OutputFormat controls the label rendering on the carrier side.
type OutputFormat struct {
	X                  string `json:"x,omitempty"`
	Y                  string `json:"y,omitempty"`
	OutputPrintingType string `json:"outputPrintingType"`
	ReturnType         string `json:"returnType,omitempty"`
}

// Letter carries the addresses, parcel and service of a postage request.
type Letter struct {
	Service             Service              `json:"service"`
	Parcel              Parcel               `json:"parcel"`
	Sender              Sender               `json:"sender"`
	Addressee           Addressee            `json:"addressee"`
	CustomsDeclarations *CustomsDeclarations `json:"customsDeclarations,omitempty"`
}

// Service identifies the product and commercial context.
type Service struct {
	ProductCode    ProductCode `json:"productCode"`
	DepositDate    string      `json:"depositDate"` // 2006-01-02
	CommercialName string      `json:"commercialName,omitempty"`
	TotalAmount    int         `json:"totalAmount,omitempty"`
}

// Parcel describes the physical parcel.
type Parcel struct {
	Weight           string `json:"weight"` // kilograms
	PickupLocationID string `json:"pickupLocationId,omitempty"`
	NonMachinable    bool   `json:"nonMachinable,omitempty"`
}

// Sender is the shipping party of a letter.
type Sender struct {
	SenderParcelRef string  `json:"senderParcelRef,omitempty"`
	Address         Address `json:"address"`
}

// Addressee is the receiving party of a letter.
type Addressee struct {
	AddresseeParcelRef string  `json:"addresseeParcelRef,omitempty"`
	Address            Address `json:"address"`
}

// Address is a Colissimo postal address. Blank optional fields are
// omitted from the payload; the API treats absence differently from
// empty strings.
type Address struct {
	CompanyName  string `json:"companyName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	FirstName    string `json:"firstName,omitempty"`
	Line0        string `json:"line0,omitempty"`
	Line1        string `json:"line1,omitempty"`
	Line2        string `json:"line2,omitempty"`
	Line3        string `json:"line3,omitempty"`
	CountryCode  string `json:"countryCode,omitempty"`
	City         string `json:"city,omitempty"`
	ZipCode      string `json:"zipCode,omitempty"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	MobileNumber string `json:"mobileNumber,omitempty"`
	DoorCode1    string `json:"doorCode1,omitempty"`
	DoorCode2    string `json:"doorCode2,omitempty"`
	Intercom     string `json:"intercom,omitempty"`
	Email        string `json:"email,omitempty"`
	Language     string `json:"language,omitempty"`
}

// CustomsDeclarations holds the CN23 content of an international parcel.
type CustomsDeclarations struct {
	IncludeCustomsDeclarations bool      `json:"includeCustomsDeclarations"`
	Contents                   Contents  `json:"contents"`
	ImportersReference         string    `json:"importersReference,omitempty"`
	FlowTransport              string    `json:"flowTransport,omitempty"`
	InvoiceNumber              string    `json:"invoiceNumber,omitempty"`
	LicenceNumber              string    `json:"licenceNumber,omitempty"`
	CertificatNumber           string    `json:"certificatNumber,omitempty"`
	ImporterAddress            *Address  `json:"importerAddress,omitempty"`
}

// Contents is the article list of a customs declaration.
type Contents struct {
	Article  []Article `json:"article"`
	Category int       `json:"category,omitempty"`
}

// Article is one CN23 line.
type Article struct {
	Description   string  `json:"description"`
	Quantity      int     `json:"quantity"`
	Weight        float64 `json:"weight"`
	Value         float64 `json:"value"`
	HSCode        string  `json:"hsCode,omitempty"`
	OriginCountry string  `json:"originCountry,omitempty"`
	Currency      string  `json:"currency,omitempty"`
}

// Message is a diagnostic entry returned by the web services.
type Message struct {
	ID      string `json:"id" xml:"id"`
	Type    string `json:"type" xml:"type"`
	Content string `json:"messageContent" xml:"messageContent"`
}

// Attachment types produced by generateLabel.
const (
	AttachmentLabel = "label" // ZPL or PDF label data
	AttachmentCN23  = "cn23"  // customs form, PDF
)

// Attachment is a binary artifact extracted from a postage response.
type Attachment struct {
	Type string
	Data []byte
}

// GenerateLabelResponse represents the outcome of a postage request.
type GenerateLabelResponse struct {
	Success      bool
	Messages     []Message
	ParcelNumber string
	Attachments  []Attachment
}

// FirstError returns the first reported message, or nil.
func (r *GenerateLabelResponse) FirstError() *Message {
	if len(r.Messages) == 0 {
		return nil
	}
	return &r.Messages[0]
}

// ============================================================================
// Pickup point (withdrawal) request/response types
// ============================================================================

// FindPointsRequest searches pickup points around an address.
type FindPointsRequest struct {
	ZipCode      string
	City         string
	CountryCode  string
	Address      string
	ShippingDate time.Time
	RequestID    string
	WeightGrams  int
	FilterRelay  bool
}

// FindPointsResponse lists the pickup points matching a search.
type FindPointsResponse struct {
	Success  bool
	Messages []Message
	Points   []PickupPoint
}

// FindPointRequest fetches a single pickup point by identifier.
type FindPointRequest struct {
	ID          string
	Date        time.Time
	WeightGrams int
}

// FindPointResponse carries a single pickup point.
type FindPointResponse struct {
	Success  bool
	Messages []Message
	Point    *PickupPoint
}

// PickupPoint is a pickup point as returned by the withdrawal service.
// Element names follow the carrier's wire schema.
type PickupPoint struct {
	ID             string `xml:"identifiant"`
	Name           string `xml:"nom"`
	Address1       string `xml:"adresse1"`
	Address2       string `xml:"adresse2"`
	Address3       string `xml:"adresse3"`
	ZipCode        string `xml:"codePostal"`
	City           string `xml:"localite"`
	CountryCode    string `xml:"codePays"`
	DistanceMeters int    `xml:"distanceEnMetre"`
	Latitude       string `xml:"coordGeolocalisationLatitude"`
	Longitude      string `xml:"coordGeolocalisationLongitude"`
	Type           string `xml:"typeDePoint"`

	HoursMonday    string `xml:"horairesOuvertureLundi"`
	HoursTuesday   string `xml:"horairesOuvertureMardi"`
	HoursWednesday string `xml:"horairesOuvertureMercredi"`
	HoursThursday  string `xml:"horairesOuvertureJeudi"`
	HoursFriday    string `xml:"horairesOuvertureVendredi"`
	HoursSaturday  string `xml:"horairesOuvertureSamedi"`
	HoursSunday    string `xml:"horairesOuvertureDimanche"`
}

// OpeningHours returns the raw opening-hours field for an ISO weekday
// (1 = Monday .. 7 = Sunday). The second result is false when the day
// is absent from the record.
func (p *PickupPoint) OpeningHours(weekday int) (string, bool) {
	var raw string
	switch weekday {
	case 1:
		raw = p.HoursMonday
	case 2:
		raw = p.HoursTuesday
	case 3:
		raw = p.HoursWednesday
	case 4:
		raw = p.HoursThursday
	case 5:
		raw = p.HoursFriday
	case 6:
		raw = p.HoursSaturday
	case 7:
		raw = p.HoursSunday
	default:
		return "", false
	}
	if raw == "" {
		return "", false
	}
	return raw, true
}

// APIError represents an error reported by the Colissimo web services.
type APIError struct {
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Description
}
