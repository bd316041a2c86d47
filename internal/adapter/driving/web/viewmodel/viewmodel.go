// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// CallPageViewModel holds everything the Test Call page renders.
type CallPageViewModel struct {
	CSRFToken  string
	Phone      string
	Prompt     string
	TestNumber string

	// Result block; hidden when Status is empty.
	Phase          string
	Status         string
	ErrorDetails   string
	AIResponseHTML string // Sanitized HTML.

	CredentialsComplete bool
	CredentialsWarning  string
}

// HasResult reports whether the result block should be shown.
func (v CallPageViewModel) HasResult() bool {
	return v.Status != ""
}

// KeyViewModel is one row of the API keys form.
type KeyViewModel struct {
	Name   string
	Label  string
	Masked    string
	IsSet     bool
	UpdatedAt string // Empty when the key was never stored.
}

// KeysPageViewModel holds the API keys settings page.
type KeysPageViewModel struct {
	CSRFToken string
	Keys      []KeyViewModel
	Flash     string
	Error     string
}
