//go:build darwin

package editor

// Microsoft Excel holds a lock on open workbooks; close it before writing
// and open it again afterwards.
const (
	defaultCloseCommand  = `osascript -e 'tell application "Microsoft Excel" to close workbook "{name}" saving yes'`
	defaultReopenCommand = `osascript -e 'tell application "Microsoft Excel" to open POSIX file "{path}"'`
)
