package repository

// SourceOption applies a configuration option to the XLSXSource.
type SourceOption func(*XLSXSource)

// WithHeaderRow controls whether the first row of a range is skipped.
func WithHeaderRow(skip bool) SourceOption {
	return func(s *XLSXSource) {
		s.headerRow = skip
	}
}

// WithDefaultStartRow sets the first row read when a range omits it.
func WithDefaultStartRow(row int) SourceOption {
	return func(s *XLSXSource) {
		if row > 0 {
			s.defaultStartRow = row
		}
	}
}

// SinkOption applies a configuration option to the XLSXSink.
type SinkOption func(*XLSXSink)

// WithSheet sets the output sheet name.
func WithSheet(name string) SinkOption {
	return func(s *XLSXSink) {
		if name != "" {
			s.sheet = name
		}
	}
}

// WithColumnGap sets the number of empty columns between tables.
func WithColumnGap(n int) SinkOption {
	return func(s *XLSXSink) {
		if n >= 0 {
			s.gap = n
		}
	}
}
