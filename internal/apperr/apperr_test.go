package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thywilljoshua/deckgen/internal/apperr"
)

func TestError_Error(t *testing.T) {
	cause := errors.New("quota exceeded")
	tests := []struct {
		name string
		err  *apperr.Error
		want string
	}{
		{"message and cause", &apperr.Error{Kind: apperr.KindGeneration, Message: "model call", Err: cause}, "failed to generate content: model call: quota exceeded"},
		{"cause only", &apperr.Error{Kind: apperr.KindImage, Err: cause}, "failed to generate image: quota exceeded"},
		{"message only", &apperr.Error{Kind: apperr.KindExport, Message: "no content"}, "export failed: no content"},
		{"bare", &apperr.Error{Kind: apperr.KindBusy}, "busy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Nil(t, apperr.Wrap(nil, apperr.KindGeneration, "x"))

	cause := errors.New("boom")
	err := apperr.Wrap(cause, apperr.KindRegeneration, "")
	assert.True(t, apperr.Is(err, apperr.KindRegeneration))
	assert.ErrorIs(t, err, cause)

	// same kind, no extra message: not double wrapped
	assert.Same(t, err, apperr.Wrap(err, apperr.KindRegeneration, ""))
}

func TestKindOf(t *testing.T) {
	inner := apperr.New(apperr.KindUnsupportedInput, ".txt")
	outer := fmt.Errorf("attach: %w", inner)
	assert.Equal(t, apperr.KindUnsupportedInput, apperr.KindOf(outer))
	assert.Equal(t, apperr.Kind(""), apperr.KindOf(errors.New("plain")))
	assert.False(t, apperr.Is(nil, apperr.KindExport))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", apperr.UserMessage(nil))
	assert.Equal(t, "an unexpected error occurred: plain", apperr.UserMessage(errors.New("plain")))
	assert.Equal(t, "unsupported file: .txt", apperr.UserMessage(apperr.New(apperr.KindUnsupportedInput, ".txt")))
}
