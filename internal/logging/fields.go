package logging

// Field name constants for structured logging.
const (
	// Common fields.
	FieldError = "error"
	FieldPath  = "path"
	FieldPaths = "paths"
	FieldCount = "count"

	// Snippet fields.
	FieldTrigger  = "trigger"
	FieldInstance = "instance"
	FieldStop     = "stop"
	FieldNode     = "node"
	FieldSpan     = "span"
	FieldText     = "text"
	FieldDelta    = "delta"
	FieldEdit     = "edit"
	FieldDepth    = "depth"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
