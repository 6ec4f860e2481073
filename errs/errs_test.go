package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundOnlyMatchesKindNotFound(t *testing.T) {
	assert.True(t, NotFound(New(KindNotFound, "missing", nil)))
	assert.False(t, NotFound(New(KindStall, "stalled", nil)))
	assert.False(t, NotFound(errors.New("plain error")))
	assert.False(t, NotFound(nil))
}

func TestFatalExcludesNotFoundAndStall(t *testing.T) {
	assert.False(t, Fatal(nil))
	assert.False(t, Fatal(New(KindNotFound, "missing", nil)))
	assert.False(t, Fatal(New(KindStall, "stalled", nil)))
	assert.True(t, Fatal(New(KindNodeUnreachable, "down", nil)))
	assert.True(t, Fatal(New(KindEventStreamFatal, "bad stream", nil)))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(KindRPCProtocol, "bad response", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "bad response")
	assert.Contains(t, err.Error(), "root cause")
}

func TestIsIgnoresErrorCopiedIntoString(t *testing.T) {
	err := New(KindConfig, "bad config", nil)
	wrapped := errors.New("context: " + err.Error())
	assert.False(t, Is(wrapped, KindConfig))
	assert.True(t, Is(err, KindConfig))
}
