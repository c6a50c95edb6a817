package core

import (
	"context"
	"errors"
)

// Typed failure reasons for the external classifier/generator call. Adapters
// wrap their provider errors with one of these so the policy layer can match
// on the failure kind instead of catching generic errors.
var (
	// ErrLLMTimeout indicates the external call exceeded its deadline
	ErrLLMTimeout = errors.New("llm call timed out")
	// ErrLLMMalformedOutput indicates the model replied in an unparseable shape
	ErrLLMMalformedOutput = errors.New("llm output malformed")
	// ErrLLMUnavailable indicates the service could not be reached
	ErrLLMUnavailable = errors.New("llm service unavailable")
)

// RawClassification is the unvalidated tuple returned by an external
// classifier. Intent may be anything, including values outside the closed set.
type RawClassification struct {
	Intent      string
	Confidence  float64
	SubCategory string
	Reasoning   string
}

// LLMClient defines the interface for the external generative text backend
type LLMClient interface {
	// ClassifyIntent asks the model to classify one email into the intent
	// taxonomy. The returned tuple is untrusted and must pass through the
	// classification policy before use.
	ClassifyIntent(ctx context.Context, email *Email, evidence *EvidenceBag) (*RawClassification, error)

	// GenerateReply asks the model to draft a reply for the email given its
	// classified intent
	GenerateReply(ctx context.Context, email *Email, intent Intent, evidence *EvidenceBag) (string, error)

	// ModelName identifies the backing model for audit records
	ModelName() string
}

// EmailSource loads email records from an external collaborator. An empty
// source yields an empty slice, not an error.
type EmailSource interface {
	Load(ctx context.Context) ([]*Email, error)
}

// RawDocument is the best-effort output of external document extraction:
// raw text plus untyped field guesses. Every field is optional.
type RawDocument struct {
	Ref            string
	Text           string
	AccountNumbers []string
	Amounts        []string
	Dates          []string
	Names          []string
}

// DocumentExtractor resolves an attachment reference into extracted text and
// field guesses. A missing or unreadable document degrades to an empty
// RawDocument rather than an error.
type DocumentExtractor interface {
	Extract(ctx context.Context, ref string) (*RawDocument, error)
}

// ResultStore persists per-email result bundles for external consumers.
// Implementations must round-trip the bundle losslessly.
type ResultStore interface {
	Save(ctx context.Context, result *EmailResult) error
	Get(ctx context.Context, emailID string) (*EmailResult, error)
	Close() error
}

// ErrResultNotFound is returned by ResultStore.Get for an unknown email id
var ErrResultNotFound = errors.New("result not found")
