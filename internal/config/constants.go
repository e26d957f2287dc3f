package config

// SourceFileExt is the canonical source extension.
const SourceFileExt = ".sest"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".sest"}

// OutputFileExt is the extension of emitted target-runtime sources.
const OutputFileExt = ".sestir"

// ProjectFileName is the optional per-project configuration file.
const ProjectFileName = "sester.yaml"

// PrimitiveSpace is the output space of runtime-provided primitives.
const PrimitiveSpace = "sester_primitives"

// Builtin type and constructor names.
const (
	ListTypeName   = "list"
	OptionTypeName = "option"
	PidTypeName    = "pid"
	FormatTypeName = "format"
	NoneCtorName   = "None"
	SomeCtorName   = "Some"
)
