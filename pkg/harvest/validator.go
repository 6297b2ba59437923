// Package harvest post-processes harvested DCAT payloads. The validator
// is a pass-through filter: it posts the payload to a remote validation
// service and annotates it with any errors reported, optionally halting
// the harvest when validation fails.
package harvest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultValidationService is the validation endpoint used when none is
// configured.
const DefaultValidationService = "https://sandbox.oppnadata.se/validator"

// Validator posts harvested payloads to a validation service.
type Validator struct {
	ServiceURL   string
	StopOnErrors bool
	client       *http.Client
}

// NewValidator creates a Validator against serviceURL. When
// stopOnErrors is set, a payload that fails validation is dropped
// instead of passed through annotated.
func NewValidator(serviceURL string, stopOnErrors bool, timeout time.Duration) *Validator {
	if serviceURL == "" {
		serviceURL = DefaultValidationService
	}
	return &Validator{
		ServiceURL:   serviceURL,
		StopOnErrors: stopOnErrors,
		client:       &http.Client{Timeout: timeout},
	}
}

// validationResult is the validation service's response body.
type validationResult struct {
	RDFError       string            `json:"rdfError"`
	Errors         []string          `json:"errors"`
	Warnings       []string          `json:"warnings"`
	MandatoryError []string          `json:"mandatoryError"`
	Resources      []json.RawMessage `json:"resources"`
}

// AfterDownload validates content and returns it together with any
// validation messages. The content comes back unchanged unless
// StopOnErrors is set and validation failed, in which case it is nil.
// A clean payload returns no messages.
func (v *Validator) AfterDownload(ctx context.Context, content []byte) ([]byte, []string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.ServiceURL, bytes.NewReader(content))
	if err != nil {
		return v.failed(content, fmt.Sprintf("error contacting the validation service: %v", err))
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return v.failed(content, fmt.Sprintf("error contacting the validation service: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return v.failed(content, fmt.Sprintf("the validation service returned an error: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return v.failed(content, fmt.Sprintf("error reading validation response: %v", err))
	}
	var result validationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return v.failed(content, fmt.Sprintf("malformed validation response: %v", err))
	}

	if result.RDFError == "" && len(result.Errors) == 0 && len(result.Warnings) == 0 {
		return content, nil
	}

	var msgs []string
	if result.RDFError != "" {
		msgs = append(msgs, result.RDFError)
	} else {
		for _, class := range result.MandatoryError {
			msgs = append(msgs, fmt.Sprintf("mandatory class %s missing", class))
		}
		for _, res := range result.Resources {
			msgs = append(msgs, string(res))
		}
	}
	return v.outcome(content, msgs)
}

func (v *Validator) failed(content []byte, msg string) ([]byte, []string) {
	return v.outcome(content, []string{msg})
}

func (v *Validator) outcome(content []byte, msgs []string) ([]byte, []string) {
	if v.StopOnErrors {
		return nil, msgs
	}
	return content, msgs
}
