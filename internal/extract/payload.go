package extract

import "fmt"

// Payload is one brochure handed to the aggregator. Label is the filename or
// URL the bytes came from and is only used in diagnostics.
type Payload struct {
	Label string
	Data  []byte
}

// Failure reports a document whose bytes could not be opened as a PDF.
type Failure struct {
	Label  string
	Detail string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("extract: %s: %s", f.Label, f.Detail)
}

// Result is the outcome of extracting a single document. Exactly one of Text
// or Failure is meaningful: a nil Failure means Text holds the document text,
// which may legitimately be empty for image-only brochures.
type Result struct {
	Text    string
	Failure *Failure
}

// Text builds a successful Result.
func Text(content string) Result {
	return Result{Text: content}
}

// Fail builds a failed Result.
func Fail(label, detail string) Result {
	return Result{Failure: &Failure{Label: label, Detail: detail}}
}

// OK reports whether extraction succeeded.
func (r Result) OK() bool {
	return r.Failure == nil
}

// Err returns the Failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}
