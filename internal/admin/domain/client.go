package domain

import "time"

// Client is the aggregate handed to the token flow: the registered client
// plus hydrated copies of every reference it links to. Embedded slices only
// contain references that resolved at assembly time.
type Client struct {
	ID                          string
	ClientID                    string `validate:"required,notblank,max=128"`
	SecretHash                  string // argon2 encoded
	RedirectURI                 string `validate:"omitempty,max=255"`
	AccessTokenValiditySeconds  *int // nil when unconfigured
	RefreshTokenValiditySeconds *int // nil when the client gets no refresh tokens
	Audiences                   []Reference
	Scopes                      []Reference
	GrantTypes                  []Reference
	Authorities                 []Reference
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

// HasAuthority reports whether the client carries the named authority.
func (c Client) HasAuthority(name string) bool {
	for _, a := range c.Authorities {
		if a.Name == name {
			return true
		}
	}
	return false
}

// References returns the client's embedded sets grouped by kind.
func (c Client) References() map[Kind][]Reference {
	return map[Kind][]Reference{
		KindAudience:  c.Audiences,
		KindScope:     c.Scopes,
		KindGrantType: c.GrantTypes,
		KindAuthority: c.Authorities,
	}
}
