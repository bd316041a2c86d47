package model

import (
	"strings"
	"time"
)

// Key names under which provider credentials are stored in the key-value store.
const (
	KeyTwilioAccountSID  = "twilio_account_sid"
	KeyTwilioAuthToken   = "twilio_auth_token"
	KeyTwilioPhoneNumber = "twilio_phone_number"
	KeyOpenAI            = "openai"
)

// CredentialKeys lists every key the credential loader reads, in display order.
var CredentialKeys = []string{
	KeyTwilioAccountSID,
	KeyTwilioAuthToken,
	KeyTwilioPhoneNumber,
	KeyOpenAI,
}

// IsCredentialKey reports whether name is one of the known credential keys.
func IsCredentialKey(name string) bool {
	for _, k := range CredentialKeys {
		if k == name {
			return true
		}
	}
	return false
}

// APIKey is a single stored entry of the key-value store. Value is plaintext
// at the domain boundary; adapters handle encryption.
type APIKey struct {
	Name      string
	Value     string
	UpdatedAt time.Time
}

// CredentialSet is the flat record of provider credentials loaded at startup.
// A field is "" when its key is absent from the store.
type CredentialSet struct {
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	OpenAIAPIKey      string
}

// Get returns the field stored under the given key name.
func (c CredentialSet) Get(key string) string {
	switch key {
	case KeyTwilioAccountSID:
		return c.TwilioAccountSID
	case KeyTwilioAuthToken:
		return c.TwilioAuthToken
	case KeyTwilioPhoneNumber:
		return c.TwilioPhoneNumber
	case KeyOpenAI:
		return c.OpenAIAPIKey
	default:
		return ""
	}
}

// With returns a copy of c with the field for key set to value. Unknown keys
// leave c unchanged.
func (c CredentialSet) With(key, value string) CredentialSet {
	switch key {
	case KeyTwilioAccountSID:
		c.TwilioAccountSID = value
	case KeyTwilioAuthToken:
		c.TwilioAuthToken = value
	case KeyTwilioPhoneNumber:
		c.TwilioPhoneNumber = value
	case KeyOpenAI:
		c.OpenAIAPIKey = value
	}
	return c
}

// IsComplete reports whether every credential field is non-empty.
func (c CredentialSet) IsComplete() bool {
	for _, k := range CredentialKeys {
		if c.Get(k) == "" {
			return false
		}
	}
	return true
}

// Masked returns a copy with secrets obscured. The originating phone number
// is not a secret and is returned as is.
func (c CredentialSet) Masked() CredentialSet {
	return CredentialSet{
		TwilioAccountSID:  MaskSecret(c.TwilioAccountSID),
		TwilioAuthToken:   MaskSecret(c.TwilioAuthToken),
		TwilioPhoneNumber: c.TwilioPhoneNumber,
		OpenAIAPIKey:      MaskSecret(c.OpenAIAPIKey),
	}
}

// MaskSecret keeps the last four characters of s and replaces the rest with
// asterisks. Values of four characters or fewer are fully masked.
func MaskSecret(s string) string {
	const visible = 4
	if s == "" {
		return ""
	}
	r := []rune(s)
	if len(r) <= visible {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-visible) + string(r[len(r)-visible:])
}
