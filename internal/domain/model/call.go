package model

import "time"

// DefaultPrompt is the prompt sent with a call when the user has not edited it.
const DefaultPrompt = "You are a helpful AI assistant. Engage in a friendly conversation with the caller and try to assist them with any questions or tasks they might have."

// User-facing status lines shown for each phase of a call attempt.
const (
	StatusInitiating = "Initiating call..."
	StatusFailed     = "Error occurred during call"
)

// CallPhase is the lifecycle position of the most recent call attempt.
type CallPhase string

const (
	CallPhaseIdle      CallPhase = "idle" // No attempt has been made yet.
	CallPhasePending   CallPhase = "pending"
	CallPhaseSucceeded CallPhase = "succeeded"
	CallPhaseFailed    CallPhase = "failed"
)

// CallRequest is the body sent to the call-initiation backend. To is passed
// through unvalidated.
type CallRequest struct {
	To     string
	Prompt string
}

// CallResponse is the decoded success body of the call-initiation backend.
type CallResponse struct {
	CallSID    string
	AIResponse string
}

// CallState is the observable record of the latest call attempt, owned by the
// call service and read by the rendering layer.
type CallState struct {
	Phase        CallPhase
	AttemptID    string
	To           string
	Status       string
	ErrorDetails string
	AIResponse   string
	CallSID      string
	UpdatedAt    time.Time
}

// HasResult reports whether there is anything to display.
func (s CallState) HasResult() bool {
	return s.Status != ""
}
