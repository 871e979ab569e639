package models

import "time"

// DateLayout is the day-month-year format the registry forms use.
const DateLayout = "02-01-2006"

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

type Religion string

const (
	ReligionIslam        Religion = "ISLAM"
	ReligionProtestant   Religion = "PROTESTANT"
	ReligionCatholic     Religion = "CATHOLIC"
	ReligionHindu        Religion = "HINDU"
	ReligionBuddhist     Religion = "BUDDHIST"
	ReligionConfucian    Religion = "CONFUCIAN"
	ReligionOtherBeliefs Religion = "OTHER_BELIEFS"
)

// Resident is a civil-registry record. Its key is the NIK, which never
// changes once stored. Everything below the review metadata is descriptive
// payload without workflow behaviour.
type Resident struct {
	ID     string `bson:"_id,omitempty" json:"id"`
	Owner  string `bson:"owner_id" json:"owner_id"`
	Review `bson:",inline"`

	MovedInOn  string `bson:"moved_in_on,omitempty" json:"moved_in_on,omitempty"`
	ReportedOn string `bson:"reported_on,omitempty" json:"reported_on,omitempty"`

	FullName  string           `bson:"full_name" json:"full_name"`
	NIK       string           `bson:"nik" json:"nik"`
	BirthDate string           `bson:"birth_date" json:"birth_date"`
	Gender    Choice[Gender]   `bson:"gender,omitempty" json:"gender"`
	Religion  Choice[Religion] `bson:"religion,omitempty" json:"religion"`
	Address   string           `bson:"address,omitempty" json:"address,omitempty"`
	PhotoURL  string           `bson:"photo_url,omitempty" json:"photo_url,omitempty"`

	Documents   IdentityDocuments `bson:"documents" json:"documents"`
	Birth       BirthDetails      `bson:"birth" json:"birth"`
	Education   EducationWork     `bson:"education" json:"education"`
	Citizenship Citizenship       `bson:"citizenship" json:"citizenship"`
	Parents     Parents           `bson:"parents" json:"parents"`
	Domicile    Domicile          `bson:"domicile" json:"domicile"`
	Contact     Contact           `bson:"contact" json:"contact"`
	Marriage    Marriage          `bson:"marriage" json:"marriage"`
	Health      Health            `bson:"health" json:"health"`

	Literacy Choice[string] `bson:"literacy,omitempty" json:"literacy"`
	Remarks  string         `bson:"remarks,omitempty" json:"remarks,omitempty"`
}

type IdentityDocuments struct {
	IdentityRequired   string         `bson:"identity_required,omitempty" json:"identity_required,omitempty"`
	ElectronicID       Choice[string] `bson:"electronic_id,omitempty" json:"electronic_id"`
	RecordingStatus    Choice[string] `bson:"recording_status,omitempty" json:"recording_status"`
	CardTag            string         `bson:"card_tag,omitempty" json:"card_tag,omitempty"`
	PreviousFamilyCard string         `bson:"previous_family_card,omitempty" json:"previous_family_card,omitempty"`
	FamilyRelation     Choice[string] `bson:"family_relation,omitempty" json:"family_relation"`
	ResidencyStatus    Choice[string] `bson:"residency_status,omitempty" json:"residency_status"`
}

type BirthDetails struct {
	CertificateNumber string         `bson:"certificate_number,omitempty" json:"certificate_number,omitempty"`
	Place             string         `bson:"place,omitempty" json:"place,omitempty"`
	Time              string         `bson:"time,omitempty" json:"time,omitempty"`
	Facility          Choice[string] `bson:"facility,omitempty" json:"facility"`
	BirthType         Choice[string] `bson:"birth_type,omitempty" json:"birth_type"`
	ChildOrder        string         `bson:"child_order,omitempty" json:"child_order,omitempty"`
	Attendant         Choice[string] `bson:"attendant,omitempty" json:"attendant"`
	WeightGrams       string         `bson:"weight_grams,omitempty" json:"weight_grams,omitempty"`
	LengthCm          string         `bson:"length_cm,omitempty" json:"length_cm,omitempty"`
}

type EducationWork struct {
	FamilyCardEducation Choice[string] `bson:"family_card_education,omitempty" json:"family_card_education"`
	CurrentEducation    Choice[string] `bson:"current_education,omitempty" json:"current_education"`
	Occupation          string         `bson:"occupation,omitempty" json:"occupation,omitempty"`
}

type Citizenship struct {
	Ethnicity      Choice[string] `bson:"ethnicity,omitempty" json:"ethnicity"`
	Status         Choice[string] `bson:"status,omitempty" json:"status"`
	PassportNumber string         `bson:"passport_number,omitempty" json:"passport_number,omitempty"`
	PassportExpiry string         `bson:"passport_expiry,omitempty" json:"passport_expiry,omitempty"`
}

type Parents struct {
	FatherNIK  string `bson:"father_nik,omitempty" json:"father_nik,omitempty"`
	FatherName string `bson:"father_name,omitempty" json:"father_name,omitempty"`
	MotherNIK  string `bson:"mother_nik,omitempty" json:"mother_nik,omitempty"`
	MotherName string `bson:"mother_name,omitempty" json:"mother_name,omitempty"`
}

type Domicile struct {
	Hamlet          Choice[string] `bson:"hamlet,omitempty" json:"hamlet"`
	RW              string         `bson:"rw,omitempty" json:"rw,omitempty"`
	RT              string         `bson:"rt,omitempty" json:"rt,omitempty"`
	PreviousAddress string         `bson:"previous_address,omitempty" json:"previous_address,omitempty"`
}

type Contact struct {
	Phone     string         `bson:"phone,omitempty" json:"phone,omitempty"`
	Email     string         `bson:"email,omitempty" json:"email,omitempty"`
	Telegram  string         `bson:"telegram,omitempty" json:"telegram,omitempty"`
	Preferred Choice[string] `bson:"preferred,omitempty" json:"preferred"`
}

type Marriage struct {
	Status            Choice[string] `bson:"status,omitempty" json:"status"`
	CertificateNumber string         `bson:"certificate_number,omitempty" json:"certificate_number,omitempty"`
	MarriedOn         string         `bson:"married_on,omitempty" json:"married_on,omitempty"`
	DivorceCert       string         `bson:"divorce_certificate,omitempty" json:"divorce_certificate,omitempty"`
	DivorcedOn        string         `bson:"divorced_on,omitempty" json:"divorced_on,omitempty"`
}

type Health struct {
	BloodType      Choice[string] `bson:"blood_type,omitempty" json:"blood_type"`
	Disability     Choice[string] `bson:"disability,omitempty" json:"disability"`
	ChronicIllness Choice[string] `bson:"chronic_illness,omitempty" json:"chronic_illness"`
	Contraception  Choice[string] `bson:"contraception,omitempty" json:"contraception"`
	Insurance      Choice[string] `bson:"insurance,omitempty" json:"insurance"`
	EmploymentBPJS string         `bson:"employment_bpjs,omitempty" json:"employment_bpjs,omitempty"`
}

// NewResident returns an empty draft: pending, no owner, no timestamps,
// every choice unset and both reporting dates set to today.
func NewResident(now time.Time) Resident {
	today := now.Format(DateLayout)
	return Resident{
		Review:     Review{Status: StatusPending},
		MovedInOn:  today,
		ReportedOn: today,
		Documents:  IdentityDocuments{IdentityRequired: "NOT_REQUIRED"},
	}
}

func (r Resident) RecordKind() Kind       { return KindResident }
func (r Resident) RecordID() string       { return r.ID }
func (r Resident) OwnerID() string        { return r.Owner }
func (r Resident) SubmittedAt() time.Time { return r.CreatedAt }
func (r Resident) ReviewState() Review    { return r.Review }

// PhotoPath is the blob key a resident's photo is stored under.
func PhotoPath(nik string) string {
	return "resident-photos/" + nik + ".jpg"
}
