package models

// AccountPatch is a partial update of an Account. Email, password and role
// cannot be cleared; a null for them is a validation error.
type AccountPatch struct {
	Email    Optional[string]   `json:"email"`
	Password Optional[string]   `json:"password"`
	Role     Optional[RoleName] `json:"role"`
	IsActive Optional[bool]     `json:"is_active"`
}

func (p AccountPatch) Empty() bool {
	return !p.Email.IsSet() && !p.Password.IsSet() && !p.Role.IsSet() && !p.IsActive.IsSet()
}

// ProfilePatch is a partial update of a Profile. Name cannot be cleared.
type ProfilePatch struct {
	Name        Optional[string] `json:"name"`
	Phone       Optional[string] `json:"phone"`
	Address     Optional[string] `json:"address"`
	City        Optional[string] `json:"city"`
	District    Optional[string] `json:"district"`
	Ward        Optional[string] `json:"ward"`
	DateOfBirth Optional[Date]   `json:"date_of_birth"`
	Gender      Optional[Gender] `json:"gender"`
	Avatar      Optional[string] `json:"avatar"`
	Note        Optional[string] `json:"note"`
}

func (p ProfilePatch) Empty() bool {
	return !p.Name.IsSet() && !p.Phone.IsSet() && !p.Address.IsSet() && !p.City.IsSet() &&
		!p.District.IsSet() && !p.Ward.IsSet() && !p.DateOfBirth.IsSet() && !p.Gender.IsSet() &&
		!p.Avatar.IsSet() && !p.Note.IsSet()
}

// ApplyTo writes every set field into p. Validation happens before this.
func (pp ProfilePatch) ApplyTo(p *Profile) {
	if v, ok := pp.Name.Get(); ok {
		p.Name = v
	}
	pp.Phone.ApplyTo(&p.Phone)
	pp.Address.ApplyTo(&p.Address)
	pp.City.ApplyTo(&p.City)
	pp.District.ApplyTo(&p.District)
	pp.Ward.ApplyTo(&p.Ward)
	pp.DateOfBirth.ApplyTo(&p.DateOfBirth)
	pp.Gender.ApplyTo(&p.Gender)
	pp.Avatar.ApplyTo(&p.Avatar)
	pp.Note.ApplyTo(&p.Note)
}
