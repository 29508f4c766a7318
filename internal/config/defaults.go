package config

// Default configuration values.
const (
	VersionLegacy  = "0"
	VersionCurrent = "1"
	DefaultVersion = VersionCurrent
	DefaultQuote   = QuoteAlways
)

// DefaultScriptRunner returns the script runner used when a task sets none.
func DefaultScriptRunner(os OS) string {
	if os == Windows {
		return "cmd /C"
	}
	return "bash"
}

// DefaultScriptExt returns the script file extension used when a task sets none.
func DefaultScriptExt(os OS) string {
	if os == Windows {
		return "cmd"
	}
	return "sh"
}

// EffectiveQuote returns the file-level quote mode, or the default.
func (f *File) EffectiveQuote() QuoteMode {
	if f.Quote != nil {
		return *f.Quote
	}
	return DefaultQuote
}
