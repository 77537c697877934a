package types

// FallbackUserLabel is displayed when an identity carries no email.
const FallbackUserLabel = "Usuário"

// Identity represents the authenticated user as reported by the session gateway.
type Identity struct {
	// ID is the opaque identifier assigned by the backend.
	ID string `json:"id"`

	// Email is the login email. Some backends allow accounts without one.
	Email *string `json:"email"`
}

// DisplayLabel returns the email of the identity, or FallbackUserLabel when absent.
func (i Identity) DisplayLabel() string {
	if i.Email == nil || *i.Email == "" {
		return FallbackUserLabel
	}
	return *i.Email
}
