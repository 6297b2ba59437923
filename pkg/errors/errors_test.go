package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oppnadata/orgsync/pkg/errors"
)

func TestAPIErrorStatusMapping(t *testing.T) {
	notFound := errors.NewAPIError("organization_show", http.StatusNotFound, "not found")
	assert.True(t, errors.IsNotFound(notFound))
	assert.False(t, errors.IsValidation(notFound))

	conflict := errors.NewAPIError("organization_create", http.StatusConflict, "name already in use")
	assert.True(t, errors.IsValidation(conflict))
	assert.False(t, errors.IsNotFound(conflict))

	serverErr := errors.NewAPIError("organization_list", http.StatusInternalServerError, "boom")
	assert.False(t, errors.IsNotFound(serverErr))
	assert.False(t, errors.IsValidation(serverErr))
}

func TestFetchErrorIsUnavailable(t *testing.T) {
	err := errors.NewFetchError("https://feed.test/sources.json", 6, errors.New("connection refused"))
	assert.True(t, errors.IsUnavailable(err))
	assert.True(t, errors.IsFatal(err))
}

func TestParseErrorIsFatal(t *testing.T) {
	err := errors.NewParseError("json", "unable to parse feed response", errors.New("unexpected EOF"))
	assert.True(t, errors.IsFatal(err))
	assert.False(t, errors.IsUnavailable(err))
}

func TestValidationErrorIsNotFatal(t *testing.T) {
	err := errors.NewValidationError("url", "required field missing")
	assert.True(t, errors.IsValidation(err))
	assert.False(t, errors.IsFatal(err))
}

func TestSyncErrorWrapping(t *testing.T) {
	inner := errors.NewAPIError("organization_patch", http.StatusConflict, "bad extras")
	err := errors.NewSyncError("example-kommun", "update", inner)

	assert.True(t, errors.IsValidation(err))
	assert.Contains(t, err.Error(), "example-kommun")
	assert.Contains(t, err.Error(), "update")
}

func TestFatalSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("running sync: %w", errors.NewParseError("json", "bad feed", nil))
	assert.True(t, errors.IsFatal(err))
}
