package constants

/*
	Defines a set of base level
	constants and enums to be used
	throughout the parser and its
	associated services.
*/
type Arity string
type ScalarType string
type Operator string
type OutputFormat string
type DuplicateKeyPolicy string
type SinkKind string

