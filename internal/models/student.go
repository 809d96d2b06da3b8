package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Student is an enrolled language-training client.
type Student struct {
	ID string `db:"id" json:"id"`
	// StudentID is the visible STU-DDMMYY-NNNN identifier. Immutable once assigned.
	StudentID        string          `db:"student_id" json:"studentId"`
	ProspectID       *string         `db:"prospect_id" json:"prospectId,omitempty"`
	Name             string          `db:"name" json:"name"`
	Email            *string         `db:"email" json:"email,omitempty"`
	Phone            *string         `db:"phone" json:"phone,omitempty"`
	RegistrationDate time.Time       `db:"registration_date" json:"registrationDate"`
	DateOfBirth      *time.Time      `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	Nationality      string          `db:"nationality" json:"nationality"`
	Occupation       string          `db:"occupation" json:"occupation"`
	Address          string          `db:"address" json:"address"`
	MotherTongue     string          `db:"mother_tongue" json:"motherTongue"`
	ReferralSource   ReferralSource  `db:"referral_source" json:"referralSource"`
	ReferralOther    string          `db:"referral_other" json:"referralOther,omitempty"`
	TotalFees        decimal.Decimal `db:"total_fees" json:"totalFees"`
	Attribution
}

// Clone returns a deep copy.
func (s *Student) Clone() *Student {
	if s == nil {
		return nil
	}
	c := *s
	c.ProspectID = cloneString(s.ProspectID)
	c.Email = cloneString(s.Email)
	c.Phone = cloneString(s.Phone)
	c.DateOfBirth = cloneTime(s.DateOfBirth)
	return &c
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search string
	PageRequest
}
