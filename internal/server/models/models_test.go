package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseRoleName(t *testing.T) {
	r, err := ParseRoleName("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	r, err = ParseRoleName("user")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, r)

	_, err = ParseRoleName("superuser")
	assert.True(t, errors.Is(err, common.ErrRoleNotConfigured))

	assert.True(t, RoleAdmin.Valid())
	assert.False(t, RoleName("").Valid())
}

func TestAccount_IsAdmin(t *testing.T) {
	assert.True(t, (&Account{Role: Role{Name: RoleAdmin}}).IsAdmin())
	assert.False(t, (&Account{Role: Role{Name: RoleUser}}).IsAdmin())
	assert.False(t, (&Account{Role: Role{Name: "root"}}).IsAdmin())
	assert.False(t, (*Account)(nil).IsAdmin())
}

func TestAccount_PasswordHashNeverSerialized(t *testing.T) {
	b, err := json.Marshal(&Account{ID: "a-1", Email: "a@example.com", PasswordHash: "$2a$12$secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "password")
}

func TestProfile_FullAddress(t *testing.T) {
	p := &Profile{Address: strPtr("12 Ly Thuong Kiet"), Ward: strPtr(""), District: strPtr("Hoan Kiem"), City: strPtr("Ha Noi")}
	assert.Equal(t, "12 Ly Thuong Kiet, Hoan Kiem, Ha Noi", p.FullAddress())
	assert.Equal(t, "", (&Profile{}).FullAddress())
	assert.Equal(t, "", (*Profile)(nil).FullAddress())
}

func TestDate_JSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"1990-05-17"`), &d))
	assert.Equal(t, NewDate(1990, time.May, 17).Time, d.Time)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"1990-05-17"`, string(b))

	require.Error(t, json.Unmarshal([]byte(`"17/05/1990"`), &d))
}

func TestOptional_DecodeStates(t *testing.T) {
	var patch ProfilePatch
	require.NoError(t, json.Unmarshal([]byte(`{"phone": null, "city": "Da Nang", "gender": "other"}`), &patch))

	assert.True(t, patch.Phone.IsSet())
	assert.True(t, patch.Phone.IsNull())

	city, ok := patch.City.Get()
	assert.True(t, ok)
	assert.Equal(t, "Da Nang", city)

	assert.False(t, patch.Name.IsSet(), "absent key stays unset")
	assert.False(t, patch.Note.IsSet())
	assert.False(t, patch.Empty())

	g, ok := patch.Gender.Get()
	assert.True(t, ok)
	assert.Equal(t, GenderOther, g)
}

func TestProfilePatch_ApplyTo(t *testing.T) {
	dob := NewDate(2000, time.January, 2)
	p := &Profile{Name: "Old", Phone: strPtr("0900000000"), Note: strPtr("keep me")}

	ProfilePatch{
		Name:        Some("New"),
		Phone:       Null[string](),
		City:        Some("Hue"),
		DateOfBirth: Some(dob),
	}.ApplyTo(p)

	assert.Equal(t, "New", p.Name)
	assert.Nil(t, p.Phone, "explicit null clears")
	require.NotNil(t, p.City)
	assert.Equal(t, "Hue", *p.City)
	require.NotNil(t, p.DateOfBirth)
	assert.Equal(t, dob, *p.DateOfBirth)
	require.NotNil(t, p.Note)
	assert.Equal(t, "keep me", *p.Note, "unset leaves value alone")
}

func TestProfilePatch_NullNameKeepsName(t *testing.T) {
	p := &Profile{Name: "Kept"}
	ProfilePatch{Name: Null[string]()}.ApplyTo(p)
	assert.Equal(t, "Kept", p.Name)
}

func TestAccountPatch_Empty(t *testing.T) {
	assert.True(t, AccountPatch{}.Empty())
	assert.False(t, AccountPatch{IsActive: Some(false)}.Empty())
	assert.True(t, ProfilePatch{}.Empty())
}

func TestGender_Valid(t *testing.T) {
	assert.True(t, GenderFemale.Valid())
	assert.False(t, Gender("unknown").Valid())
}
