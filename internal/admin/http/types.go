package http

import (
	"time"

	"github.com/castellan/castellan/internal/admin/domain"
)

type referenceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type referenceResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

type referenceListResponse struct {
	References []referenceResponse `json:"references"`
}

type accountRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password,omitempty"`
	Locked   bool     `json:"locked"`
	Roles    []string `json:"roles,omitempty"` // role ids
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type accountResponse struct {
	ID       string              `json:"id"`
	Username string              `json:"username"`
	Locked   bool                `json:"locked"`
	Roles    []referenceResponse `json:"roles,omitempty"`
	Created  time.Time           `json:"created"`
	Updated  time.Time           `json:"updated"`
}

type accountListResponse struct {
	Accounts []accountResponse `json:"accounts"`
}

type clientRequest struct {
	ClientID                    string   `json:"client_id"`
	Secret                      string   `json:"secret,omitempty"`
	RedirectURI                 string   `json:"redirect_uri,omitempty"`
	AccessTokenValiditySeconds  *int     `json:"access_token_validity_seconds,omitempty"`
	RefreshTokenValiditySeconds *int     `json:"refresh_token_validity_seconds,omitempty"`
	Audiences                   []string `json:"audiences,omitempty"` // reference ids
	Scopes                      []string `json:"scopes,omitempty"`
	GrantTypes                  []string `json:"grant_types,omitempty"`
	Authorities                 []string `json:"authorities,omitempty"`
}

type clientResponse struct {
	ID                          string              `json:"id"`
	ClientID                    string              `json:"client_id"`
	Secret                      string              `json:"secret,omitempty"` // only on create
	RedirectURI                 string              `json:"redirect_uri,omitempty"`
	AccessTokenValiditySeconds  *int                `json:"access_token_validity_seconds,omitempty"`
	RefreshTokenValiditySeconds *int                `json:"refresh_token_validity_seconds,omitempty"`
	Audiences                   []referenceResponse `json:"audiences,omitempty"`
	Scopes                      []referenceResponse `json:"scopes,omitempty"`
	GrantTypes                  []referenceResponse `json:"grant_types,omitempty"`
	Authorities                 []referenceResponse `json:"authorities,omitempty"`
	Created                     time.Time           `json:"created"`
	Updated                     time.Time           `json:"updated"`
}

type clientListResponse struct {
	Clients []clientResponse `json:"clients"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
	// Database is only set by the readiness probe.
	Database string `json:"database,omitempty"`
}

func toReferenceResponse(ref domain.Reference) referenceResponse {
	return referenceResponse{
		ID:          ref.ID,
		Name:        ref.Name,
		Description: ref.Description,
		Created:     ref.CreatedAt,
		Updated:     ref.UpdatedAt,
	}
}

func toReferenceResponses(refs []domain.Reference) []referenceResponse {
	if len(refs) == 0 {
		return nil
	}
	out := make([]referenceResponse, len(refs))
	for i, ref := range refs {
		out[i] = toReferenceResponse(ref)
	}
	return out
}

func toAccountResponse(a domain.Account) accountResponse {
	return accountResponse{
		ID:       a.ID,
		Username: a.Username,
		Locked:   a.Locked,
		Roles:    toReferenceResponses(a.Roles),
		Created:  a.CreatedAt,
		Updated:  a.UpdatedAt,
	}
}

func toClientResponse(c domain.Client) clientResponse {
	return clientResponse{
		ID:                          c.ID,
		ClientID:                    c.ClientID,
		RedirectURI:                 c.RedirectURI,
		AccessTokenValiditySeconds:  c.AccessTokenValiditySeconds,
		RefreshTokenValiditySeconds: c.RefreshTokenValiditySeconds,
		Audiences:                   toReferenceResponses(c.Audiences),
		Scopes:                      toReferenceResponses(c.Scopes),
		GrantTypes:                  toReferenceResponses(c.GrantTypes),
		Authorities:                 toReferenceResponses(c.Authorities),
		Created:                     c.CreatedAt,
		Updated:                     c.UpdatedAt,
	}
}
