// Package gateway implements the Colissimo shipping gateway: service
// variant selection, postage request building, label retrieval and
// pickup-point search on top of the carrier web services.
package gateway

import (
	"context"
)

// Service identifies a Colissimo service variant.
type Service string

const (
	ServiceHomeUnsigned Service = "HomeUnsigned"
	ServiceHomeSigned   Service = "HomeSigned"
	ServiceRelay        Service = "Relay"
	ServiceReturn       Service = "Return"
)

// Services returns the available service variants.
func Services() []Service {
	return []Service{
		ServiceHomeUnsigned,
		ServiceHomeSigned,
		ServiceRelay,
		ServiceReturn,
	}
}

// Valid reports whether s is a known service variant.
func (s Service) Valid() bool {
	switch s {
	case ServiceHomeUnsigned, ServiceHomeSigned, ServiceRelay, ServiceReturn:
		return true
	}
	return false
}

// Label returns the display name of the service.
func (s Service) Label() string {
	switch s {
	case ServiceHomeUnsigned:
		return "Colissimo Domicile sans signature"
	case ServiceHomeSigned:
		return "Colissimo Domicile avec signature"
	case ServiceRelay:
		return "Colissimo Point retrait"
	case ServiceReturn:
		return "Colissimo Retour"
	}
	return "Colissimo Domicile"
}

// MaxWeightKG is the heaviest parcel Colissimo accepts.
const MaxWeightKG = 30.0

// Action is a gateway operation exposed to callers.
type Action string

const (
	ActionShip       Action = "ship"
	ActionCancel     Action = "cancel"
	ActionPrintLabel Action = "print_label"
	ActionTrack      Action = "track"
)

// LabelType classifies an attached shipment label.
type LabelType string

const (
	LabelShipment LabelType = "shipment"
	LabelReturn   LabelType = "return"
	LabelCustoms  LabelType = "customs"
)

// LabelFormat is the media type of a label's content.
type LabelFormat string

const (
	FormatPNG LabelFormat = "png"
	FormatPDF LabelFormat = "pdf"
)

// LabelSize is the paper size of a label.
type LabelSize string

const (
	SizeA6 LabelSize = "A6" // postage format
	SizeA4 LabelSize = "A4"
)

// Label is a printable artifact attached to a shipment or parcel.
type Label struct {
	Type    LabelType
	Format  LabelFormat
	Size    LabelSize
	Content []byte
}

// PhoneNumber is a phone number with an optional region hint. Numbers
// carrying a region are normalized to international dialing format
// before submission; plain numbers pass through untouched.
type PhoneNumber struct {
	Number string
	Region string // ISO 3166-1 alpha-2, e.g. "FR"
}

// Empty reports whether no number is set.
func (p PhoneNumber) Empty() bool {
	return p.Number == ""
}

// Address is a domain postal address.
type Address struct {
	Company    string
	FirstName  string
	LastName   string
	Supplement string // line 0
	Complement string // line 1
	Street     string // line 2
	Extra      string // line 3
	City       string
	PostalCode string
	CountryCode string
	Phone      PhoneNumber
	Mobile     PhoneNumber
	DoorCode1  string
	DoorCode2  string
	Intercom   string
}

// Sale is the order record a shipment belongs to.
type Sale struct {
	Number    string
	Email     string
	FirstName string
	LastName  string
	Currency  string
}

// ShipmentItem is one line of a shipment.
type ShipmentItem struct {
	Designation string
	Quantity    int
	Weight      float64 // per unit, kilograms
	NetPrice    float64
}

// Shipment is the caller-owned aggregate the gateway operates on. The
// gateway sets the tracking number and appends labels during Ship; it
// never mutates anything else.
type Shipment struct {
	Return          bool
	Weight          float64 // kilograms; <= 0 means derive from items
	Items           []ShipmentItem
	Sale            *Sale
	SenderAddress   Address
	ReceiverAddress Address
	RelayPoint      *RelayPoint
	Parcels         []*Parcel

	TrackingNumber string
	Labels         []Label
}

// HasParcels reports whether the shipment is split into parcels.
func (s *Shipment) HasParcels() bool {
	return len(s.Parcels) > 0
}

// AddLabel appends a label. Existing labels are never replaced.
func (s *Shipment) AddLabel(l Label) {
	s.Labels = append(s.Labels, l)
}

// RootShipment implements LabelTarget.
func (s *Shipment) RootShipment() *Shipment {
	return s
}

// AttachedLabels implements LabelTarget.
func (s *Shipment) AttachedLabels() []Label {
	return s.Labels
}

// Parcel is one physical parcel of a multi-parcel shipment.
type Parcel struct {
	Shipment       *Shipment
	TrackingNumber string
	Labels         []Label
}

// RootShipment implements LabelTarget.
func (p *Parcel) RootShipment() *Shipment {
	return p.Shipment
}

// AttachedLabels implements LabelTarget.
func (p *Parcel) AttachedLabels() []Label {
	return p.Labels
}

// LabelTarget is what PrintLabel accepts: a whole shipment or a single
// parcel of one.
type LabelTarget interface {
	RootShipment() *Shipment
	AttachedLabels() []Label
}

// TimeRange is an opening period within a day, "HH:MM" bounds.
type TimeRange struct {
	From string
	To   string
}

// OpeningHours is the schedule of a relay point for one weekday
// (1 = Monday .. 7 = Sunday). A day open non-stop has one range, a
// closed day has none.
type OpeningHours struct {
	Day    int
	Ranges []TimeRange
}

// RelayPoint is a normalized carrier pickup point.
type RelayPoint struct {
	ID             string
	Name           string
	Street         string
	Complement     string
	Supplement     string
	PostalCode     string
	City           string
	CountryCode    string
	DistanceMeters int
	Latitude       float64
	Longitude      float64
	Type           string // carrier sub-type tag, e.g. "A2P"
	OpeningHours   []OpeningHours
}

// ============================================================================
// Collaborator contracts
// ============================================================================

// Persister stores a shipment after the gateway mutated it.
type Persister interface {
	Persist(ctx context.Context, s *Shipment) error
}

// PersisterFunc adapts a function to the Persister interface.
type PersisterFunc func(ctx context.Context, s *Shipment) error

// Persist implements Persister.
func (f PersisterFunc) Persist(ctx context.Context, s *Shipment) error {
	return f(ctx, s)
}

// Settings parameter keys consumed by the gateway.
const (
	SettingAdminEmail = "general.admin_email"
	SettingSiteName   = "general.site_name"
)

// SettingsStore provides platform-wide string parameters.
type SettingsStore interface {
	GetParameter(key string) string
}

// SettingsMap is an in-memory SettingsStore.
type SettingsMap map[string]string

// GetParameter implements SettingsStore.
func (m SettingsMap) GetParameter(key string) string {
	return m[key]
}

// WeightCalculator computes a shipment weight when the stored one is
// missing or non-positive.
type WeightCalculator interface {
	CalculateShipment(s *Shipment) float64
}

// ItemWeightCalculator sums the item weights of the shipment.
type ItemWeightCalculator struct{}

// CalculateShipment implements WeightCalculator.
func (ItemWeightCalculator) CalculateShipment(s *Shipment) float64 {
	var total float64
	for _, item := range s.Items {
		total += item.Weight * float64(item.Quantity)
	}
	return total
}
