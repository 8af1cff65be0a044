package generator

import (
	"context"
	"encoding/json"
	"fmt"
)

// Provider produces draft lesson components from a free-text seed.
// Implementations may call an LLM or return canned drafts (for tests).
// Output is untrusted and semi-structured: callers must parse and validate
// every draft before using it.
type Provider interface {
	// GenerateComponents returns raw component drafts in presentation order.
	GenerateComponents(ctx context.Context, seed string) ([]json.RawMessage, error)
}

// ProviderError is returned when generation fails so the caller can
// distinguish "provider answered garbage" from "provider was unreachable."
type ProviderError struct {
	Reason  string
	Wrapped error
}

func (e *ProviderError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("generation failed: %s: %v", e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("generation failed: %s", e.Reason)
}

func (e *ProviderError) Unwrap() error {
	return e.Wrapped
}
