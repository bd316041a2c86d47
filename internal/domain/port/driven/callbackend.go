package driven

import (
	"context"

	"github.com/ericfisherdev/callpanel/internal/domain/model"
)

// CallBackend defines the driven port for the external call-initiation service
// that places the phone call and produces the AI response.
type CallBackend interface {
	// InitiateCall sends exactly one request and returns the decoded success
	// body. It does not retry.
	InitiateCall(ctx context.Context, req model.CallRequest) (model.CallResponse, error)
}
