// Package pronoun holds the pronoun catalog: definitions, grammatical forms,
// and the builtin seed set.
package pronoun

import (
	"crypto/rand"
	"encoding/hex"
)

// Forms is the canonical five-slot grammatical shape of a pronoun set.
// Earlier revisions of the service stored a {singular, description, ownership}
// triple; that shape survives only as a derived compatibility view (see Wire).
type Forms struct {
	Subject              string `json:"subject"`
	Object               string `json:"object"`
	PossessiveDeterminer string `json:"possessiveDeterminer"`
	PossessivePronoun    string `json:"possessivePronoun"`
	Reflexive            string `json:"reflexive"`
}

// Definition is one named pronoun set.
type Definition struct {
	// ID is the stable key: canonical camel-case for builtins ("theyThem"),
	// random hex for user-created definitions.
	ID string

	// CompatCode maps to the upstream pronoun registry's short code. Nil for
	// definitions with no upstream equivalent; always nil for user-created
	// definitions.
	CompatCode *string

	// DisplayName is the human label, e.g. "it/its".
	DisplayName string

	Forms Forms

	// CreatorID is the owning identity, nil for builtin definitions.
	CreatorID *int64

	// SubVariants lists definition ids this entry may randomize among at
	// resolution time. All ids must resolve; two or more make the definition
	// eligible for randomization.
	SubVariants []string
}

// IsBuiltin reports whether the definition was seeded rather than user-created.
func (d *Definition) IsBuiltin() bool {
	return d.CreatorID == nil
}

// CanRandomize reports whether resolution may substitute a sub-variant.
func (d *Definition) CanRandomize() bool {
	return len(d.SubVariants) >= 2
}

// Wire is the JSON shape of a definition. It carries the five-slot forms and
// the deprecated triple view (singular/description/ownership) for old clients.
type Wire struct {
	ID          string  `json:"id"`
	CompatCode  *string `json:"pronoundb"`
	DisplayName string  `json:"pronoun"`
	Forms       Forms   `json:"forms"`
	CreatorID   *int64  `json:"creatorId"`

	// Deprecated compatibility view, derived from Forms.
	Singular    string `json:"singular"`
	Description string `json:"description"`
	Ownership   string `json:"ownership"`
}

// Wire renders the definition for responses.
func (d *Definition) Wire() Wire {
	return Wire{
		ID:          d.ID,
		CompatCode:  d.CompatCode,
		DisplayName: d.DisplayName,
		Forms:       d.Forms,
		CreatorID:   d.CreatorID,
		Singular:    d.Forms.Subject,
		Description: d.Forms.Object,
		Ownership:   d.Forms.PossessiveDeterminer,
	}
}

// NewCustomID returns a random 20-byte hex id for a user-created definition.
func NewCustomID() string {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure means the process has no usable entropy source.
		panic(err)
	}
	return hex.EncodeToString(buf)
}
