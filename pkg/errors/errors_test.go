package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := ResolutionExhausted("https://example.org/ndownloader/files/1", 3, 503, stderrors.New("boom"))
	assert.Equal(t, "resolution_exhausted error (code 503): gave up on https://example.org/ndownloader/files/1 after 3 attempts: boom", err.Error())
	assert.Equal(t, "locator error: folderStructure not found", LocatorError("folderStructure not found", nil).Error())
}

func TestIsTypeWalksCauseChain(t *testing.T) {
	inner := ResolutionExhausted("u", 3, 500, nil)
	outer := LocatorError("landing page unavailable", inner)
	wrapped := fmt.Errorf("remote: %w", outer)

	assert.True(t, IsType(wrapped, ErrorTypeLocator))
	assert.True(t, IsType(wrapped, ErrorTypeExhausted))
	assert.False(t, IsType(wrapped, ErrorTypeLoad))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeUnknown))
	assert.Equal(t, ErrorTypeLocator, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"load", LoadFailure("catalog.json", stderrors.New("missing")), ExitLoad},
		{"malformed schema", SchemaMalformed(nil), ExitSchema},
		{"invalid catalog", fmt.Errorf("validate: %w", CatalogInvalid(nil)), ExitSchema},
		{"links", LinkUnreachable(2, 5), ExitLinks},
		{"locator", LocatorError("x", nil), ExitFailure},
		{"load during generate", GenerateFailed(LoadFailure("species_names.json", stderrors.New("missing"))), ExitFailure},
		{"plain", stderrors.New("plain"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestNewHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{0, ErrorTypeNetwork},
		{404, ErrorTypeNotFound},
		{503, ErrorTypeServerError},
		{418, ErrorTypeUnknown},
	}
	for _, tt := range tests {
		err := NewHTTPError(tt.status, "https://example.org")
		assert.Equal(t, tt.want, err.Type, "status %d", tt.status)
		assert.Equal(t, tt.status, err.Code)
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	for status, want := range map[int]bool{0: true, 429: true, 500: true, 502: true, 401: false, 404: false, 400: false} {
		assert.Equal(t, want, IsRetryableStatusCode(status), "status %d", status)
	}
	assert.True(t, IsRetryable(ErrorTypeChallenge))
	assert.False(t, IsRetryable(ErrorTypeConfig))
}
