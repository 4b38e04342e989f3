// Package debug carries the pluggable debug output used by the drivers.
package debug

// Writer receives one message per call.
type Writer func(string)

var writer Writer

// SetWriter installs w. A nil w disables output.
func SetWriter(w Writer) {
	writer = w
}

// Enabled reports whether a writer is installed. Callers check it before
// formatting messages so disabled builds do not allocate.
func Enabled() bool {
	return writer != nil
}

// Println writes msg if a writer is installed.
func Println(msg string) {
	if writer != nil {
		writer(msg)
	}
}
