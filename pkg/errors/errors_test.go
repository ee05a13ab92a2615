package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldLogout(t *testing.T) {
	assert.True(t, ShouldLogout(Clone(ErrAuthExpired, "")))
	assert.True(t, ShouldLogout(fmt.Errorf("list contacts: %w", ErrAuthRequired)))
	assert.False(t, ShouldLogout(ErrNetwork))
	assert.False(t, ShouldLogout(New(ErrHTTP.Code, http.StatusInternalServerError, "boom")))
	assert.False(t, ShouldLogout(errors.New("plain")))
	assert.False(t, ShouldLogout(nil))
}

func TestIsMatchesByCode(t *testing.T) {
	err := Wrap(errors.New("redis: nil"), ErrCacheMiss.Code, ErrCacheMiss.Status, "miss")
	assert.True(t, errors.Is(err, ErrCacheMiss))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("disk full"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}
