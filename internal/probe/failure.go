package probe

import "errors"

// Failure kinds. Every probe error wraps exactly one of them.
var (
	ErrConnection       = errors.New("connection failure")
	ErrProtocolMismatch = errors.New("protocol mismatch")
	ErrValueMismatch    = errors.New("value mismatch")
	ErrToolMissing      = errors.New("tool missing")
)

// Failure carries a readable message together with its kind and the
// underlying error, if any.
type Failure struct {
	Kind error
	Msg  string
	Err  error
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	return f.Msg
}

func (f *Failure) Unwrap() []error {
	if f == nil {
		return nil
	}
	if f.Err == nil {
		return []error{f.Kind}
	}
	return []error{f.Kind, f.Err}
}

func connectionFailure(err error) error {
	return &Failure{Kind: ErrConnection, Msg: err.Error(), Err: err}
}
