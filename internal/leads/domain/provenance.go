package domain

import "github.com/google/uuid"

// Source identifies how a lead entered the system.
type Source string

// Lead sources.
const (
	SourceBooking Source = "booking"
	SourceManual  Source = "manual"
	SourceEnquiry Source = "customer_enquiry"
)

// Provenance is a tagged union over the ways a lead can originate.
// Exactly one of the From* constructors produces each variant; the
// repository persists it as a source column plus contact fields.
type Provenance interface {
	Source() Source
}

// FromBooking marks a lead derived from an existing booking.
type FromBooking struct{}

// Source implements Provenance.
func (FromBooking) Source() Source { return SourceBooking }

// FromManual marks an admin-entered lead pre-bound to a partner.
type FromManual struct {
	PartnerID uuid.UUID
}

// Source implements Provenance.
func (FromManual) Source() Source { return SourceManual }

// FromEnquiry marks a lead submitted through the public enquiry form,
// carrying a snapshot of the guest's contact details.
type FromEnquiry struct {
	Name  string
	Phone string
	Email string
}

// Source implements Provenance.
func (FromEnquiry) Source() Source { return SourceEnquiry }
