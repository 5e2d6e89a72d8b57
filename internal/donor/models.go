package donor

import (
	"regexp"
	"time"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
)

// HealthStatus grades a donor's general health at registration.
type HealthStatus string

const (
	HealthExcellent HealthStatus = "excellent"
	HealthGood      HealthStatus = "good"
	HealthFair      HealthStatus = "fair"
	HealthPoor      HealthStatus = "poor"
)

// SmokingStatus and AlcoholUse feed the availability score, never the
// fulfillment engine.
type SmokingStatus string

const (
	SmokingNever  SmokingStatus = "never"
	SmokingFormer SmokingStatus = "former"
	SmokingLight  SmokingStatus = "light"
	SmokingHeavy  SmokingStatus = "heavy"
)

type AlcoholUse string

const (
	AlcoholNever  AlcoholUse = "never"
	AlcoholSocial AlcoholUse = "social"
	AlcoholWeekly AlcoholUse = "weekly"
	AlcoholDaily  AlcoholUse = "daily"
)

var (
	nationalIDPattern = regexp.MustCompile(`^\d{9}$`)
	phonePattern      = regexp.MustCompile(`^(?:\+972|0)(?:-)?5[02-9](?:-)?\d{7}$`)
)

// Donor is the aggregate root for a blood donor.
//
// Invariants:
//   - NationalID is exactly 9 digits and unique across donors
//   - Age is between 18 and 65 at registration time
//   - BloodType is one of the eight ABO/Rh types
//   - ChronicIllnessDetails is non-empty when HasChronicIllness is set
//   - LastMedicalExam never lies in the future
//
// Donors are never deleted while donations reference them; the store enforces
// referential integrity.
type Donor struct {
	ID          id.DonorID   `json:"id"`
	NationalID  string       `json:"national_id"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	DateOfBirth time.Time    `json:"date_of_birth"`
	BloodType   id.BloodType `json:"blood_type"`

	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email,omitempty"`
	Address     string `json:"address,omitempty"`

	HealthStatus          HealthStatus  `json:"health_status"`
	SmokingStatus         SmokingStatus `json:"smoking_status"`
	AlcoholUse            AlcoholUse    `json:"alcohol_use"`
	HasChronicIllness     bool          `json:"has_chronic_illness"`
	ChronicIllnessDetails string        `json:"chronic_illness_details,omitempty"`
	LastMedicalExam       *time.Time    `json:"last_medical_exam,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Age computes the donor's age in whole years as of the given date.
func (d *Donor) Age(asOf time.Time) int {
	years := asOf.Year() - d.DateOfBirth.Year()
	if asOf.Month() < d.DateOfBirth.Month() ||
		(asOf.Month() == d.DateOfBirth.Month() && asOf.Day() < d.DateOfBirth.Day()) {
		years--
	}
	return years
}

// FullName renders the donor's display name.
func (d *Donor) FullName() string {
	return d.FirstName + " " + d.LastName
}

// Validate checks all aggregate invariants. Called by NewDonor and by the
// service on administrative edits.
func (d *Donor) Validate(now time.Time) error {
	if !nationalIDPattern.MatchString(d.NationalID) {
		return dErrors.New(dErrors.CodeInvariantViolation, "national id must be exactly 9 digits")
	}
	if d.FirstName == "" || d.LastName == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "donor name is required")
	}
	if !d.BloodType.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "malformed blood type: "+string(d.BloodType))
	}
	if d.DateOfBirth.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "date of birth is required")
	}
	if age := d.Age(now); age < 18 {
		return dErrors.New(dErrors.CodeInvariantViolation, "donor must be at least 18 years old")
	} else if age > 65 {
		return dErrors.New(dErrors.CodeInvariantViolation, "donor must be at most 65 years old")
	}
	if d.PhoneNumber != "" && !phonePattern.MatchString(d.PhoneNumber) {
		return dErrors.New(dErrors.CodeInvariantViolation, "phone number is not in a recognized format")
	}
	if d.HasChronicIllness && d.ChronicIllnessDetails == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "chronic illness details are required when chronic illness is flagged")
	}
	if d.LastMedicalExam != nil && d.LastMedicalExam.After(now) {
		return dErrors.New(dErrors.CodeInvariantViolation, "last medical exam cannot be in the future")
	}
	return nil
}

// NewDonor constructs a validated donor aggregate.
func NewDonor(donorID id.DonorID, params RegisterParams, now time.Time) (*Donor, error) {
	d := &Donor{
		ID:                    donorID,
		NationalID:            params.NationalID,
		FirstName:             params.FirstName,
		LastName:              params.LastName,
		DateOfBirth:           params.DateOfBirth,
		BloodType:             params.BloodType,
		PhoneNumber:           params.PhoneNumber,
		Email:                 params.Email,
		Address:               params.Address,
		HealthStatus:          params.HealthStatus,
		SmokingStatus:         params.SmokingStatus,
		AlcoholUse:            params.AlcoholUse,
		HasChronicIllness:     params.HasChronicIllness,
		ChronicIllnessDetails: params.ChronicIllnessDetails,
		LastMedicalExam:       params.LastMedicalExam,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if d.HealthStatus == "" {
		d.HealthStatus = HealthGood
	}
	if d.SmokingStatus == "" {
		d.SmokingStatus = SmokingNever
	}
	if d.AlcoholUse == "" {
		d.AlcoholUse = AlcoholNever
	}
	if err := d.Validate(now); err != nil {
		return nil, err
	}
	return d, nil
}

// RegisterParams carries registration input for a new donor.
type RegisterParams struct {
	NationalID            string        `json:"national_id"`
	FirstName             string        `json:"first_name"`
	LastName              string        `json:"last_name"`
	DateOfBirth           time.Time     `json:"date_of_birth"`
	BloodType             id.BloodType  `json:"blood_type"`
	PhoneNumber           string        `json:"phone_number"`
	Email                 string        `json:"email"`
	Address               string        `json:"address"`
	HealthStatus          HealthStatus  `json:"health_status"`
	SmokingStatus         SmokingStatus `json:"smoking_status"`
	AlcoholUse            AlcoholUse    `json:"alcohol_use"`
	HasChronicIllness     bool          `json:"has_chronic_illness"`
	ChronicIllnessDetails string        `json:"chronic_illness_details"`
	LastMedicalExam       *time.Time    `json:"last_medical_exam"`
}
