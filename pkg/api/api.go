// Package api implements the actionc transform as an in-process library.
//
// Transform rewrites one JavaScript module so its server actions become
// remotely invocable: functions marked with a "use server" directive get
// stable identifiers and dispatch metadata, and actions that close over
// enclosing variables are hoisted to module scope with their captured values
// passed explicitly.
//
// The call is synchronous and performs no I/O. It is safe to call Transform
// concurrently from multiple goroutines, one source per call.
package api

type LogLevel uint8

const (
	LogLevelSilent LogLevel = iota
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type Location struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

type Message struct {
	Text     string
	Location *Location
}

// Action describes one remotely-invokable export found in the source.
type Action struct {
	// The export name the runtime dispatcher imports, "default" for default
	// exports. Hoisted actions get generated "$ACTION_" names.
	Name string

	// The stable hex digest identifying this action across rebuilds.
	ID string
}

type TransformOptions struct {
	// The file name used in error messages and as the file identity that
	// action ids are derived from. Defaults to "<stdin>".
	Sourcefile string

	// The module source text.
	Contents string

	// True when the output targets a trusted server-only runtime.
	IsServer bool

	// LogLevelSilent accumulates messages in the result only. Any other
	// level additionally streams them to stderr as they happen.
	LogLevel   LogLevel
	ErrorLimit int
	Color      StderrColor
}

type TransformResult struct {
	Errors   []Message
	Warnings []Message

	// The transformed module. Empty when parsing failed.
	Code string

	// True when at least one action was found and rewritten.
	HasAction bool

	// The module's actions in declaration order.
	Actions []Action
}

// Transform parses, rewrites, and re-prints one module.
func Transform(options TransformOptions) TransformResult {
	return transformImpl(options)
}
