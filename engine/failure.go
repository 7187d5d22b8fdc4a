package engine

import "fmt"

// Kind names a documented native failure condition. The set mirrors
// the exception names versioned object-store engines raise.
type Kind string

const (
	ConstraintError          Kind = "ConstraintError"
	DataError                Kind = "DataError"
	DataCloneError           Kind = "DataCloneError"
	TransactionInactiveError Kind = "TransactionInactiveError"
	ReadOnlyError            Kind = "ReadOnlyError"
	InvalidStateError        Kind = "InvalidStateError"
	InvalidAccessError       Kind = "InvalidAccessError"
	NotFoundError            Kind = "NotFoundError"
	VersionError             Kind = "VersionError"
	AbortError               Kind = "AbortError"
	QuotaExceededError       Kind = "QuotaExceededError"
	SyntaxError              Kind = "SyntaxError"
	UnknownError             Kind = "UnknownError"
)

// Failure is the engine's domain failure signal. Only failures of this
// type are candidates for classification into typed errors; everything
// else coming out of an engine is a defect.
type Failure struct {
	Kind Kind
	Op   string
	Msg  string
}

func (f *Failure) Error() string {
	if f.Msg == "" {
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", f.Op, f.Kind, f.Msg)
}

func Fail(kind Kind, op, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}
