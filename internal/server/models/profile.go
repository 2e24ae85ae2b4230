package models

import (
	"encoding/json"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day encoded as "YYYY-MM-DD" in JSON.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Profile is the optional 1:1 personal data attached to an account.
type Profile struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Name        string    `json:"name"`
	Phone       *string   `json:"phone"`
	Address     *string   `json:"address"`
	City        *string   `json:"city"`
	District    *string   `json:"district"`
	Ward        *string   `json:"ward"`
	DateOfBirth *Date     `json:"date_of_birth"`
	Gender      *Gender   `json:"gender"`
	Avatar      *string   `json:"avatar"`
	Note        *string   `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FullAddress joins the non-empty address parts from street to city.
func (p *Profile) FullAddress() string {
	if p == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	for _, s := range []*string{p.Address, p.Ward, p.District, p.City} {
		if s != nil && *s != "" {
			parts = append(parts, *s)
		}
	}
	return strings.Join(parts, ", ")
}
