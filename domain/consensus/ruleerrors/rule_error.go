package ruleerrors

// These constants are used to identify a specific RuleError.
var (
	// ErrFormat indicates a buffer or value that does not have the fixed size
	// required by the block format.
	ErrFormat = newRuleError("ErrFormat")

	// ErrUnverifiedBlock indicates a block whose hash does not satisfy the
	// proof-of-work predicate.
	ErrUnverifiedBlock = newRuleError("ErrUnverifiedBlock")

	// ErrProofOfWorkExhausted indicates that mining went over the whole
	// allowed nonce range without finding a verified block.
	ErrProofOfWorkExhausted = newRuleError("ErrProofOfWorkExhausted")
)

// RuleError identifies a rule violation. Callers should match on the
// exported values with errors.Is, since RuleErrors are usually wrapped
// with additional context.
type RuleError struct {
	message string
	inner   error
}

func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap returns the error wrapped by this RuleError, if any.
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause returns the error wrapped by this RuleError, if any.
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}
