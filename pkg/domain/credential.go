package domain

import "strings"

// CredentialKey is the single fixed logical key under which the credential is stored.
const CredentialKey = "gemini_api_key"

// Credential is the opaque token authorizing calls to the generation backend.
// The zero value is the "unset" credential.
type Credential struct {
	value string
}

// NewCredential wraps a raw secret. An empty value yields the unset credential.
func NewCredential(value string) Credential {
	return Credential{value: value}
}

// Value returns the raw secret.
func (c Credential) Value() string {
	return c.value
}

// IsSet reports whether a non-empty secret is present.
func (c Credential) IsSet() bool {
	return c.value != ""
}

// Masked returns a representation that is safe to log or display.
// Only the last four characters of secrets longer than eight characters are revealed.
func (c Credential) Masked() string {
	if !c.IsSet() {
		return "<unset>"
	}
	if len(c.value) <= 8 {
		return strings.Repeat("*", len(c.value))
	}
	return strings.Repeat("*", 8) + c.value[len(c.value)-4:]
}

// String implements fmt.Stringer with the masked form so credentials never leak into logs.
func (c Credential) String() string {
	return c.Masked()
}
