package services

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
)

const (
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
	maxTextLength    = 255
	maxPhoneLength   = 20
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkEmail(ve *common.ValidationError, field, email string) {
	switch {
	case email == "":
		ve.Add(field, "is required")
	case utf8.RuneCountInString(email) > maxTextLength:
		ve.Add(field, fmt.Sprintf("must be at most %d characters", maxTextLength))
	default:
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			ve.Add(field, "must be a valid email address")
		}
	}
}

func checkPassword(ve *common.ValidationError, field, password string, minLength int) {
	switch {
	case password == "":
		ve.Add(field, "is required")
	case utf8.RuneCountInString(password) < minLength:
		ve.Add(field, fmt.Sprintf("must be at least %d characters", minLength))
	case len(password) > maxPasswordBytes:
		ve.Add(field, fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
}

func checkName(ve *common.ValidationError, name string) {
	switch {
	case strings.TrimSpace(name) == "":
		ve.Add("name", "is required")
	case utf8.RuneCountInString(name) > maxTextLength:
		ve.Add("name", fmt.Sprintf("must be at most %d characters", maxTextLength))
	}
}

func checkText(ve *common.ValidationError, field string, o models.Optional[string], max int) {
	if v, ok := o.Get(); ok && utf8.RuneCountInString(v) > max {
		ve.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

// checkProfilePatch validates the optional profile fields. The name is
// checked by the caller because whether it may be absent depends on the
// operation. An avatar must be a key under ownerID's prefix; with no owner
// yet only clearing it is accepted.
func checkProfilePatch(ve *common.ValidationError, p models.ProfilePatch, ownerID string, now time.Time) {
	if phone, ok := p.Phone.Get(); ok {
		switch {
		case strings.TrimSpace(phone) == "":
			ve.Add("phone", "must not be empty")
		case utf8.RuneCountInString(phone) > maxPhoneLength:
			ve.Add("phone", fmt.Sprintf("must be at most %d characters", maxPhoneLength))
		}
	}
	checkText(ve, "address", p.Address, maxTextLength)
	checkText(ve, "city", p.City, maxTextLength)
	checkText(ve, "district", p.District, maxTextLength)
	checkText(ve, "ward", p.Ward, maxTextLength)
	checkText(ve, "avatar", p.Avatar, maxTextLength)
	if key, ok := p.Avatar.Get(); ok && key != "" && !OwnsAvatarKey(ownerID, key) {
		ve.Add("avatar", "must reference an avatar uploaded for this account")
	}
	checkText(ve, "note", p.Note, 1000)

	if g, ok := p.Gender.Get(); ok && !g.Valid() {
		ve.Add("gender", "must be one of male, female, other")
	}
	if d, ok := p.DateOfBirth.Get(); ok && d.After(now) {
		ve.Add("date_of_birth", "must not be in the future")
	}
}

func validationResult(ve *common.ValidationError) error {
	if ve.Empty() {
		return nil
	}
	return ve
}
