package domain

import "time"

type Account struct {
	ID           string
	Username     string `validate:"required,notblank,max=128"`
	PasswordHash string // argon2 encoded
	Locked       bool
	Roles        []Reference
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the account carries the named role.
func (a Account) HasRole(name string) bool {
	for _, r := range a.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
