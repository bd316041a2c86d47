// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/callpanel/internal/domain/model"
	"github.com/ericfisherdev/callpanel/internal/domain/port/driven"
)

// CallService owns the call panel state: the loaded credentials, the editable
// prompt, and the outcome of the latest call attempt. Only CallService mutates
// that state; driving adapters read snapshots.
//
// Attempts may overlap. Each attempt takes a generation number and cancels
// the attempt it supersedes, and a result is applied only while its
// generation is still the newest, so the last initiated attempt always wins.
type CallService struct {
	backend    driven.CallBackend
	loader     *CredentialLoader
	testNumber string
	logger     *slog.Logger
	now        func() time.Time

	mu         sync.RWMutex
	state      model.CallState
	prompt     string
	creds      model.CredentialSet
	credsErr   error
	generation uint64
	cancel     context.CancelFunc
}

// NewCallService creates a CallService. defaultPrompt seeds the editable
// prompt and testNumber is the destination used by TestCall.
func NewCallService(
	backend driven.CallBackend,
	loader *CredentialLoader,
	defaultPrompt string,
	testNumber string,
	logger *slog.Logger,
) *CallService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CallService{
		backend:    backend,
		loader:     loader,
		testNumber: testNumber,
		logger:     logger,
		now:        time.Now,
		state:      model.CallState{Phase: model.CallPhaseIdle},
		prompt:     defaultPrompt,
	}
}

// LoadCredentials populates the credential set from the key-value store.
// On failure the set is reset to all-empty, the error is kept for display,
// and the error is returned so the caller can decide whether it is fatal.
func (s *CallService) LoadCredentials(ctx context.Context) error {
	creds, err := s.loader.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = creds
	s.credsErr = err
	if err != nil {
		s.logger.Warn("credentials unavailable, continuing with empty values", "error", err)
		return err
	}

	s.logger.Info("credentials loaded", "complete", creds.IsComplete())
	return nil
}

// Credentials returns the loaded credential set and the error from the last
// load, if any.
func (s *CallService) Credentials() (model.CredentialSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, s.credsErr
}

// MaskedCredentials returns the loaded credentials with secrets obscured and
// writes them to the log.
func (s *CallService) MaskedCredentials() model.CredentialSet {
	creds, _ := s.Credentials()
	masked := creds.Masked()

	s.logger.Info("current api keys",
		model.KeyTwilioAccountSID, masked.TwilioAccountSID,
		model.KeyTwilioAuthToken, masked.TwilioAuthToken,
		model.KeyTwilioPhoneNumber, masked.TwilioPhoneNumber,
		model.KeyOpenAI, masked.OpenAIAPIKey,
	)
	return masked
}

// Prompt returns the prompt the next attempt will send.
func (s *CallService) Prompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompt
}

// SetPrompt replaces the prompt sent with subsequent attempts. An attempt
// already in flight keeps the prompt it started with.
func (s *CallService) SetPrompt(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompt = prompt
}

// State returns a snapshot of the latest attempt's state.
func (s *CallService) State() model.CallState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// TestNumber returns the destination used by TestCall.
func (s *CallService) TestNumber() string {
	return s.testNumber
}

// TestCall initiates a call to the configured test number.
func (s *CallService) TestCall(ctx context.Context) model.CallState {
	return s.Initiate(ctx, s.testNumber)
}

// Initiate runs one call attempt to the given destination and returns the
// attempt's outcome. The outcome is also applied to State unless a newer
// attempt started in the meantime. Failures are reported through the
// returned state, never as a Go error.
func (s *CallService) Initiate(ctx context.Context, to string) model.CallState {
	attemptCtx, gen, req, pending := s.begin(ctx, to)
	defer s.release(gen)

	logger := s.logger.With("attempt_id", pending.AttemptID, "to", to)
	logger.Info("initiating call")

	resp, err := s.backend.InitiateCall(attemptCtx, req)

	outcome := pending
	outcome.UpdatedAt = s.now()
	if err != nil {
		outcome.Phase = model.CallPhaseFailed
		outcome.Status = model.StatusFailed
		outcome.ErrorDetails = err.Error()
		logger.Error("call failed", "error", err)
	} else {
		outcome.Phase = model.CallPhaseSucceeded
		outcome.CallSID = resp.CallSID
		outcome.Status = fmt.Sprintf("Call initiated successfully. SID: %s", resp.CallSID)
		outcome.AIResponse = fmt.Sprintf("AI Response: %s", resp.AIResponse)
		logger.Info("call initiated", "call_sid", resp.CallSID)
	}

	if !s.apply(gen, outcome) {
		logger.Debug("discarding superseded call result", "phase", outcome.Phase)
	}
	return outcome
}

// begin starts a new generation: it cancels the attempt in flight, resets the
// visible state to pending, and snapshots the prompt.
func (s *CallService) begin(ctx context.Context, to string) (context.Context, uint64, model.CallRequest, model.CallState) {
	attemptCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	s.cancel = cancel

	s.state = model.CallState{
		Phase:     model.CallPhasePending,
		AttemptID: uuid.NewString(),
		To:        to,
		Status:    model.StatusInitiating,
		UpdatedAt: s.now(),
	}

	return attemptCtx, s.generation, model.CallRequest{To: to, Prompt: s.prompt}, s.state
}

// apply stores outcome if gen is still the newest generation.
func (s *CallService) apply(gen uint64, outcome model.CallState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	s.state = outcome
	return true
}

// release cancels the attempt context of gen once the attempt has finished.
// A newer generation owns s.cancel and has already canceled this one.
func (s *CallService) release(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen == s.generation && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
