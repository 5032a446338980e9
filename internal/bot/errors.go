package bot

import "errors"

// Closed taxonomy for outbound-call failures. Transport adapters classify
// their native errors into these sentinels (wrapping with %w so errors.Is
// works); anything they cannot classify propagates unchanged.
var (
	// ErrTransient marks timeouts, rate limiting, and momentary
	// unreachability. The only retryable kind.
	ErrTransient = errors.New("transient transport failure")

	// ErrUserBlocked means the recipient blocked the bot. Never retried.
	// Disabling future sends is a higher layer's concern.
	ErrUserBlocked = errors.New("user blocked the bot")

	// ErrMessageNoLongerExists means an edit or delete target vanished.
	// Callers that can tolerate it treat it as a no-op.
	ErrMessageNoLongerExists = errors.New("message no longer exists")

	// ErrMessageNotModifiable means an edit was attempted on content that
	// cannot be edited. Non-retryable.
	ErrMessageNotModifiable = errors.New("message not modifiable")
)

// IsTransient reports whether an outbound-call error is retry-eligible.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
