// Package worker provides the generic stage worker: the
// consume-process-acknowledge loop shared by every pipeline stage.
package worker

// Disposition classifies the outcome of one processing attempt. The worker's
// acknowledgment decision is a pure function of the disposition.
type Disposition int

const (
	// Success means the stage completed: the record advanced, the downstream
	// entry was appended, and the entry can be acknowledged.
	Success Disposition = iota

	// PermanentFailure means a required input is missing and will not appear
	// by retrying; the record is marked error and the entry acknowledged.
	PermanentFailure

	// TransientFailure means the attempt failed in a way that may succeed on
	// retry; the record is marked error for visibility but the entry is left
	// pending for redelivery.
	TransientFailure
)

// Result is the outcome of a stage's processing function.
type Result struct {
	Disposition Disposition
	// Code is the machine-readable failure code stored on the record.
	// Empty on success.
	Code string
	// Err is the underlying cause, carried for logging only.
	Err error
}

// Succeed returns a success result.
func Succeed() Result {
	return Result{Disposition: Success}
}

// FailPermanent returns a permanent failure with the given code.
func FailPermanent(code string, err error) Result {
	return Result{Disposition: PermanentFailure, Code: code, Err: err}
}

// FailTransient returns a transient failure with the given code.
func FailTransient(code string, err error) Result {
	return Result{Disposition: TransientFailure, Code: code, Err: err}
}
