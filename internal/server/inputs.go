package server

import (
	"github.com/orderbridge/colissimo/pkg/gateway"
)

// Wire-level input types. These mirror the domain models with JSON
// tags so the domain package stays serialization-free.

type phoneInput struct {
	Number string `json:"number"`
	Region string `json:"region,omitempty"`
}

func (p phoneInput) toDomain() gateway.PhoneNumber {
	return gateway.PhoneNumber{Number: p.Number, Region: p.Region}
}

type addressInput struct {
	Company     string     `json:"company,omitempty"`
	FirstName   string     `json:"firstName,omitempty"`
	LastName    string     `json:"lastName,omitempty"`
	Supplement  string     `json:"supplement,omitempty"`
	Complement  string     `json:"complement,omitempty"`
	Street      string     `json:"street"`
	Extra       string     `json:"extra,omitempty"`
	City        string     `json:"city"`
	PostalCode  string     `json:"postalCode"`
	CountryCode string     `json:"countryCode"`
	Phone       phoneInput `json:"phone,omitempty"`
	Mobile      phoneInput `json:"mobile,omitempty"`
	DoorCode1   string     `json:"doorCode1,omitempty"`
	DoorCode2   string     `json:"doorCode2,omitempty"`
	Intercom    string     `json:"intercom,omitempty"`
}

func (a addressInput) toDomain() gateway.Address {
	return gateway.Address{
		Company:     a.Company,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Supplement:  a.Supplement,
		Complement:  a.Complement,
		Street:      a.Street,
		Extra:       a.Extra,
		City:        a.City,
		PostalCode:  a.PostalCode,
		CountryCode: a.CountryCode,
		Phone:       a.Phone.toDomain(),
		Mobile:      a.Mobile.toDomain(),
		DoorCode1:   a.DoorCode1,
		DoorCode2:   a.DoorCode2,
		Intercom:    a.Intercom,
	}
}

type saleInput struct {
	Number    string `json:"number"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Currency  string `json:"currency,omitempty"`
}

type itemInput struct {
	Designation string  `json:"designation"`
	Quantity    int     `json:"quantity"`
	Weight      float64 `json:"weight"`
	NetPrice    float64 `json:"netPrice,omitempty"`
}

type relayPointInput struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

type shipmentInput struct {
	Return          bool             `json:"return,omitempty"`
	Weight          float64          `json:"weight,omitempty"`
	Items           []itemInput      `json:"items,omitempty"`
	Sale            *saleInput       `json:"sale,omitempty"`
	SenderAddress   addressInput     `json:"senderAddress"`
	ReceiverAddress addressInput     `json:"receiverAddress"`
	RelayPoint      *relayPointInput `json:"relayPoint,omitempty"`
	TrackingNumber  string           `json:"trackingNumber,omitempty"`
}

func (in shipmentInput) toDomain() *gateway.Shipment {
	s := &gateway.Shipment{
		Return:          in.Return,
		Weight:          in.Weight,
		SenderAddress:   in.SenderAddress.toDomain(),
		ReceiverAddress: in.ReceiverAddress.toDomain(),
		TrackingNumber:  in.TrackingNumber,
	}
	for _, item := range in.Items {
		s.Items = append(s.Items, gateway.ShipmentItem{
			Designation: item.Designation,
			Quantity:    item.Quantity,
			Weight:      item.Weight,
			NetPrice:    item.NetPrice,
		})
	}
	if in.Sale != nil {
		s.Sale = &gateway.Sale{
			Number:    in.Sale.Number,
			Email:     in.Sale.Email,
			FirstName: in.Sale.FirstName,
			LastName:  in.Sale.LastName,
			Currency:  in.Sale.Currency,
		}
	}
	if in.RelayPoint != nil {
		s.RelayPoint = &gateway.RelayPoint{ID: in.RelayPoint.ID, Type: in.RelayPoint.Type}
	}
	return s
}

type labelInfo struct {
	Type    string `json:"type"`
	Format  string `json:"format"`
	Size    string `json:"size"`
	Content []byte `json:"content"`
}

func labelInfos(labels []gateway.Label) []labelInfo {
	out := make([]labelInfo, 0, len(labels))
	for _, l := range labels {
		out = append(out, labelInfo{
			Type:    string(l.Type),
			Format:  string(l.Format),
			Size:    string(l.Size),
			Content: l.Content,
		})
	}
	return out
}
