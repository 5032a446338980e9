package telegram

import (
	"errors"
	"fmt"
	"testing"

	tgbot "github.com/go-telegram/bot"
	"github.com/stretchr/testify/assert"

	core "github.com/herval/cliobot/internal/bot"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{
			name: "too many requests is transient",
			in:   fmt.Errorf("%w: retry after 5", tgbot.ErrorTooManyRequests),
			want: core.ErrTransient,
		},
		{
			name: "blocked user",
			in:   fmt.Errorf("%w: bot was blocked by the user", tgbot.ErrorForbidden),
			want: core.ErrUserBlocked,
		},
		{
			name: "delete target gone",
			in:   fmt.Errorf("%w: message to delete not found", tgbot.ErrorBadRequest),
			want: core.ErrMessageNoLongerExists,
		},
		{
			name: "edit target gone",
			in:   fmt.Errorf("%w: message to edit not found", tgbot.ErrorBadRequest),
			want: core.ErrMessageNoLongerExists,
		},
		{
			name: "no media to edit",
			in:   fmt.Errorf("%w: there is no media in the message to edit", tgbot.ErrorBadRequest),
			want: core.ErrMessageNotModifiable,
		},
		{
			name: "message cannot be edited",
			in:   fmt.Errorf("%w: message can't be edited", tgbot.ErrorBadRequest),
			want: core.ErrMessageNotModifiable,
		},
		{
			name: "no-op edit is transient",
			in:   fmt.Errorf("%w: message is not modified", tgbot.ErrorBadRequest),
			want: core.ErrTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.in)
			assert.ErrorIs(t, got, tt.want)
			// The native error stays inspectable underneath.
			assert.ErrorIs(t, got, tt.in)
		})
	}
}

func TestClassifyPassesThroughUnknownErrors(t *testing.T) {
	plain := errors.New("wire snapped")
	assert.Same(t, plain, classify(plain))

	otherForbidden := fmt.Errorf("%w: chat admin rights required", tgbot.ErrorForbidden)
	assert.Same(t, otherForbidden, classify(otherForbidden))

	otherBadRequest := fmt.Errorf("%w: chat not found", tgbot.ErrorBadRequest)
	assert.Same(t, otherBadRequest, classify(otherBadRequest))
}

func TestClassifyNil(t *testing.T) {
	assert.NoError(t, classify(nil))
}
