package web

import (
	"time"

	vm "github.com/ericfisherdev/callpanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/callpanel/internal/domain/model"
)

const keyTimeLayout = "2006-01-02 15:04 UTC"

// keyLabels are the human names shown next to each stored key.
var keyLabels = map[string]string{
	model.KeyTwilioAccountSID:  "Twilio Account SID",
	model.KeyTwilioAuthToken:   "Twilio Auth Token",
	model.KeyTwilioPhoneNumber: "Twilio Phone Number",
	model.KeyOpenAI:            "OpenAI API Key",
}

// toCallPageViewModel converts the call service snapshot into the page view model.
// The AI response may contain markdown from the model and is rendered to
// sanitized HTML here so templates never see raw backend text as HTML.
func toCallPageViewModel(state model.CallState, prompt, testNumber, csrf string, creds model.CredentialSet, credsErr error) vm.CallPageViewModel {
	page := vm.CallPageViewModel{
		CSRFToken:           csrf,
		Phone:               state.To,
		Prompt:              prompt,
		TestNumber:          testNumber,
		Phase:               string(state.Phase),
		Status:              state.Status,
		ErrorDetails:        state.ErrorDetails,
		AIResponseHTML:      RenderMarkdown(state.AIResponse),
		CredentialsComplete: creds.IsComplete(),
	}

	switch {
	case credsErr != nil:
		page.CredentialsWarning = "API keys could not be loaded: " + credsErr.Error()
	case !page.CredentialsComplete:
		page.CredentialsWarning = "Some API keys are not configured."
	}

	return page
}

// toKeysPageViewModel builds the settings page rows from an already-masked
// set and the stored keys' write times.
func toKeysPageViewModel(masked model.CredentialSet, updated map[string]time.Time, csrf string) vm.KeysPageViewModel {
	keys := make([]vm.KeyViewModel, 0, len(model.CredentialKeys))
	for _, name := range model.CredentialKeys {
		v := masked.Get(name)
		row := vm.KeyViewModel{
			Name:   name,
			Label:  keyLabels[name],
			Masked: v,
			IsSet:  v != "",
		}
		if t, ok := updated[name]; ok && !t.IsZero() {
			row.UpdatedAt = t.UTC().Format(keyTimeLayout)
		}
		keys = append(keys, row)
	}
	return vm.KeysPageViewModel{CSRFToken: csrf, Keys: keys}
}
