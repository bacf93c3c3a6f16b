package models

import (
	"fmt"

	"github.com/novonordisk-research/vcf-parser/models/constants"
)

// SchemaError is fatal at startup: a header or configuration
// inconsistency that makes every line unprocessable.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema error: %s", e.Reason)
	}
	return fmt.Sprintf("schema error for field %q: %s", e.Field, e.Reason)
}

// MultiAllelicInputError aborts a single line.
type MultiAllelicInputError struct {
	Field string
	Count int
}

func (e *MultiAllelicInputError) Error() string {
	return fmt.Sprintf("multi-allelic input: %s carries %d alternate values, split multi-allelic sites first", e.Field, e.Count)
}

type ExplodeArityMismatch struct {
	Field    string
	Entry    int
	Expected int
	Got      int
}

func (e *ExplodeArityMismatch) Error() string {
	return fmt.Sprintf("%s entry %d has %d groups, header declares %d", e.Field, e.Entry, e.Got, e.Expected)
}

type CoercionError struct {
	Field string
	Raw   string
	Type  constants.ScalarType
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot read %q as %s for %s", e.Raw, e.Type, e.Field)
}

// CountMismatchError flags a fixed-count INFO value with the wrong
// number of items. The items are kept.
type CountMismatchError struct {
	Field    string
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("%s carries %d values, header declares %d", e.Field, e.Got, e.Expected)
}

type DuplicateJoinKeyError struct {
	Field string
	Key   string
}

func (e *DuplicateJoinKeyError) Error() string {
	return fmt.Sprintf("duplicate join key %q in %s", e.Key, e.Field)
}

type LineFormatError struct {
	Reason string
}

func (e *LineFormatError) Error() string {
	return "malformed data line: " + e.Reason
}

// Diagnostic is a non-fatal (or line-fatal) problem tied to an input line.
type Diagnostic struct {
	Line  int64
	Fatal bool
	Err   error
}

func (d Diagnostic) String() string {
	if d.Fatal {
		return fmt.Sprintf("line %d: skipped: %v", d.Line, d.Err)
	}
	return fmt.Sprintf("line %d: %v", d.Line, d.Err)
}
