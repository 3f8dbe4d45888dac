package speech

import "fmt"

// ValidationError marks a malformed, out-of-range, or unknown request
// field. Surfaced to clients as a 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InferenceError marks an engine failure on a specific segment. The
// pipeline fails fast: remaining segments are aborted and no partial
// audio is returned.
type InferenceError struct {
	Segment int
	Err     error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("synthesis failed on segment %d: %v", e.Segment+1, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// AssemblyError marks a degenerate condition while stitching segment
// audio, in practice only an empty segment sequence.
type AssemblyError struct {
	Reason string
}

func (e *AssemblyError) Error() string {
	return "audio assembly failed: " + e.Reason
}

// EncodingError marks a failure of the external transcoder.
type EncodingError struct {
	Format AudioFormat
	Err    error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding to %s failed: %v", e.Format, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
