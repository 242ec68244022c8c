package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "phonehub/pkg/errors"
)

func TestProviderError(t *testing.T) {
	t.Run("server error maps to unavailable", func(t *testing.T) {
		err := pkgerrors.NewProviderError("specchaser", "/latest", 503, nil)
		assert.Equal(t, "provider specchaser: /latest: status 503", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrProviderUnavailable))
		assert.False(t, errors.Is(err, pkgerrors.ErrAuthFailed))
	})

	t.Run("401 maps to auth failure", func(t *testing.T) {
		err := pkgerrors.NewProviderError("mobilefeed", "/search", 401, nil)
		assert.True(t, errors.Is(err, pkgerrors.ErrAuthFailed))
		assert.False(t, errors.Is(err, pkgerrors.ErrProviderUnavailable))
	})

	t.Run("403 maps to auth failure", func(t *testing.T) {
		err := pkgerrors.NewProviderError("mobilefeed", "/search", 403, nil)
		assert.True(t, errors.Is(err, pkgerrors.ErrAuthFailed))
	})

	t.Run("transport failure without status", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := pkgerrors.NewProviderError("specchaser", "/brands", 0, cause)
		assert.True(t, errors.Is(err, pkgerrors.ErrProviderUnavailable))
		assert.Equal(t, cause, errors.Unwrap(err))
	})
}

func TestFieldError(t *testing.T) {
	err := &pkgerrors.FieldError{Field: "price", Reason: "no EUR value from any source"}
	assert.Equal(t, "field price: no EUR value from any source", err.Error())
	assert.True(t, errors.Is(err, pkgerrors.ErrIncomplete))
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("specchaser", "api key required")
	assert.Equal(t, "config: specchaser: api key required", err.Error())
}
