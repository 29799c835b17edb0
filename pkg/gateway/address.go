package gateway

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/orderbridge/colissimo/pkg/colissimo"
)

// MapAddress converts a domain address into a Colissimo address. Blank
// optional fields stay empty so the JSON layer omits them; the carrier
// treats absence differently from empty strings. When the address
// belongs to a sale, the sale's email is used, and the sale's contact
// name fills in for a missing address name. A name present on the
// address is never overwritten.
func MapAddress(addr Address, sale *Sale) colissimo.Address {
	out := colissimo.Address{
		CompanyName: addr.Company,
		LastName:    addr.LastName,
		FirstName:   addr.FirstName,
		Line0:       addr.Supplement,
		Line1:       addr.Complement,
		Line2:       addr.Street,
		Line3:       addr.Extra,
		CountryCode: addr.CountryCode,
		City:        addr.City,
		ZipCode:     addr.PostalCode,
		DoorCode1:   addr.DoorCode1,
		DoorCode2:   addr.DoorCode2,
		Intercom:    addr.Intercom,
	}

	if !addr.Phone.Empty() {
		out.PhoneNumber = FormatPhoneNumber(addr.Phone)
	}
	if !addr.Mobile.Empty() {
		out.MobileNumber = FormatPhoneNumber(addr.Mobile)
	}

	if sale != nil {
		out.Email = sale.Email

		if out.LastName == "" {
			out.LastName = sale.LastName
		}
		if out.FirstName == "" {
			out.FirstName = sale.FirstName
		}
	}

	return out
}

// FormatPhoneNumber normalizes a phone number to international dialing
// format with internal spaces stripped. Numbers without a region hint,
// or that fail to parse, pass through as-is.
func FormatPhoneNumber(p PhoneNumber) string {
	if p.Region == "" {
		return p.Number
	}

	parsed, err := phonenumbers.Parse(p.Number, p.Region)
	if err != nil {
		return p.Number
	}

	formatted := phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL)
	return strings.ReplaceAll(formatted, " ", "")
}
