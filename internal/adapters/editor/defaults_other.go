//go:build !darwin

package editor

// No editor is known to lock workbooks on this platform.
const (
	defaultCloseCommand  = ""
	defaultReopenCommand = ""
)
