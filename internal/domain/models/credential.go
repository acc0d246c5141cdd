package models

import (
	"time"

	"github.com/google/uuid"
)

type CredentialKind string

const (
	CredentialPassphrase CredentialKind = "passphrase"
	CredentialPin        CredentialKind = "pin"
)

// Credential - новое значение секрета галереи, уже захешированное.
type Credential struct {
	Kind           CredentialKind
	Hash           string
	MagicLinkToken string
}

// GalleryCredentials - то, что нужно для проверки секрета галереи.
type GalleryCredentials struct {
	GalleryID      uuid.UUID
	Archived       bool
	PassphraseHash *string
	PinHash        *string
}

type Scope string

const (
	ScopeView   Scope = "view"
	ScopeAccess Scope = "access"
	ScopeEditor Scope = "editor"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeView, ScopeAccess, ScopeEditor:
		return true
	}
	return false
}

// Allows reports whether a token of scope s may be used where required is needed.
func (s Scope) Allows(required Scope) bool {
	rank := map[Scope]int{ScopeView: 1, ScopeAccess: 2, ScopeEditor: 3}
	return rank[s] >= rank[required] && rank[required] > 0
}

type AccessToken struct {
	Token     string    `json:"token"`
	GalleryID uuid.UUID `json:"gallery_id"`
	Scope     Scope     `json:"scope"`
	ExpiresAt time.Time `json:"expires_at"`
}

type GalleryClaims struct {
	ID        string
	GalleryID uuid.UUID
	Scope     Scope
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// MagicLink - непрозрачный токен ссылки, по которому гость вводит PIN.
type MagicLink struct {
	Token string `json:"token"`
	URL   string `json:"url,omitempty"`
}
