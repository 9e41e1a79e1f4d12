package domain

import "time"

// Kind discriminates the five reference entity types that share the
// reference table and the uniform service behavior.
type Kind string

const (
	KindAudience  Kind = "audience"
	KindScope     Kind = "scope"
	KindGrantType Kind = "grant_type"
	KindAuthority Kind = "authority"
	KindRole      Kind = "role"
)

// Descriptor carries the per-kind strings used in ids, error codes and
// human-readable messages.
type Descriptor struct {
	Label      string // e.g. "grant type", used in messages
	Article    string // "A" or "An", to open sentences about the kind
	IDPrefix   string // e.g. "grt", prepended to ULIDs
	CodePrefix string // e.g. "GRT", prepended to error codes
}

var descriptors = map[Kind]Descriptor{
	KindAudience:  {Label: "audience", Article: "An", IDPrefix: "aud", CodePrefix: "AUD"},
	KindScope:     {Label: "scope", Article: "A", IDPrefix: "scp", CodePrefix: "SCP"},
	KindGrantType: {Label: "grant type", Article: "A", IDPrefix: "grt", CodePrefix: "GRT"},
	KindAuthority: {Label: "authority", Article: "An", IDPrefix: "ath", CodePrefix: "ATH"},
	KindRole:      {Label: "role", Article: "A", IDPrefix: "rol", CodePrefix: "ROL"},
}

// Descriptor returns the naming metadata for the kind. Unknown kinds get a
// generic descriptor so message formatting never panics.
func (k Kind) Descriptor() Descriptor {
	if d, ok := descriptors[k]; ok {
		return d
	}
	return Descriptor{Label: string(k), Article: "A", IDPrefix: "ref", CodePrefix: "ENT"}
}

// Kinds lists every reference kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindAudience, KindScope, KindGrantType, KindAuthority, KindRole}
}

// Reference is a named entity of one of the five kinds. Names are unique
// per kind.
type Reference struct {
	ID          string
	Kind        Kind
	Name        string `validate:"required,notblank,max=128"`
	Description string `validate:"omitempty,max=255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
