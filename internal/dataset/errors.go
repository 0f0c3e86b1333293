package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumn indicates a required column is absent from the header.
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmptyDataset indicates no usable rows remain.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrDuplicateHeader indicates two columns share a name.
	ErrDuplicateHeader = errors.New("duplicate column name")
	// ErrUnsupportedFormat indicates the source extension or encoding is not handled.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// InputError is an operator-correctable problem with the input data. The run aborts.
type InputError struct {
	Op        string
	Column    string
	Available []string
	Err       error
}

func (e *InputError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Column != "" {
		b.WriteString(fmt.Sprintf(" %q", e.Column))
	}
	if len(e.Available) > 0 {
		b.WriteString(fmt.Sprintf(" (available: %s)", strings.Join(e.Available, ", ")))
	}
	return b.String()
}

func (e *InputError) Unwrap() error { return e.Err }
