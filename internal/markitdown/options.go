package markitdown

// Option configures a MarkItDown instance.
type Option func(*MarkItDown)

// WithKeepDataURIs configures whether to keep full data URIs in output
// (default: false, which truncates them to data:mime/type;base64...).
func WithKeepDataURIs(keep bool) Option {
	return func(m *MarkItDown) {
		m.keepDataURIs = keep
	}
}

// WithPlugins configures whether converters registered through
// RegisterPlugin are attached to the engine (default: false).
func WithPlugins(enable bool) Option {
	return func(m *MarkItDown) {
		m.enablePlugins = enable
	}
}
