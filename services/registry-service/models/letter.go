package models

import "time"

// LetterDateLayout is the submitted-on format shown on letter requests.
const LetterDateLayout = "02/01/2006"

// DocumentType is the kind of letter a resident asks the village office for.
type DocumentType string

const (
	DocumentLeave     DocumentType = "LEAVE"
	DocumentBusiness  DocumentType = "BUSINESS_CERTIFICATE"
	DocumentDomicile  DocumentType = "DOMICILE_CERTIFICATE"
	DocumentLowIncome DocumentType = "LOW_INCOME_CERTIFICATE"
)

var documentTypes = map[DocumentType]bool{
	DocumentLeave:     true,
	DocumentBusiness:  true,
	DocumentDomicile:  true,
	DocumentLowIncome: true,
}

func (d DocumentType) Known() bool {
	return documentTypes[d]
}

type PickupMethod string

const (
	PickupDeliver PickupMethod = "DELIVER"
	PickupSelf    PickupMethod = "SELF_PICKUP"
)

// LetterRequest asks the village office to issue a document. Its id is
// assigned by the store.
type LetterRequest struct {
	ID     string `bson:"_id,omitempty" json:"id"`
	Owner  string `bson:"owner_id" json:"owner_id"`
	Review `bson:",inline"`

	NIK       string `bson:"nik" json:"nik"`
	FullName  string `bson:"full_name" json:"full_name"`
	BirthDate string `bson:"birth_date,omitempty" json:"birth_date,omitempty"`
	Address   string `bson:"address,omitempty" json:"address,omitempty"`

	DocumentType Choice[DocumentType] `bson:"document_type,omitempty" json:"document_type"`
	Purpose      string               `bson:"purpose" json:"purpose"`
	Note         *string              `bson:"note,omitempty" json:"note,omitempty"`
	Pickup       PickupMethod         `bson:"pickup" json:"pickup"`
	SubmittedOn  string               `bson:"submitted_on,omitempty" json:"submitted_on,omitempty"`
}

// NewLetterRequest returns an empty draft defaulting to self pickup.
func NewLetterRequest() LetterRequest {
	return LetterRequest{
		Review: Review{Status: StatusPending},
		Pickup: PickupSelf,
	}
}

func (l LetterRequest) RecordKind() Kind       { return KindLetter }
func (l LetterRequest) RecordID() string       { return l.ID }
func (l LetterRequest) OwnerID() string        { return l.Owner }
func (l LetterRequest) SubmittedAt() time.Time { return l.CreatedAt }
func (l LetterRequest) ReviewState() Review    { return l.Review }
