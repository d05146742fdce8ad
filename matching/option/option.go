package option

// Options controls which files under a document root are indexed
type Options struct {
	// Exclusions contains patterns of files/directories to skip
	Exclusions []string

	// Inclusions, when set, restricts indexing to matching files
	Inclusions []string

	// MaxFileSize is the maximum size of files to index in bytes
	MaxFileSize int
}

// Option is a function that modifies Options
type Option func(*Options)

// NewOptions creates options; nothing is excluded unless requested
func NewOptions(opts ...Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithDefaultExclusions appends DefaultExclusions
func WithDefaultExclusions() Option {
	return WithExclusionPatterns(DefaultExclusions()...)
}

// WithExclusionPatterns appends exclusion patterns
func WithExclusionPatterns(patterns ...string) Option {
	return func(o *Options) {
		o.Exclusions = append(o.Exclusions, patterns...)
	}
}

// WithInclusionPatterns appends inclusion patterns
func WithInclusionPatterns(patterns ...string) Option {
	return func(o *Options) {
		o.Inclusions = append(o.Inclusions, patterns...)
	}
}

// WithMaxFileSize sets the maximum indexable file size
func WithMaxFileSize(size int) Option {
	return func(o *Options) {
		o.MaxFileSize = size
	}
}

// DefaultExclusions returns VCS, editor and office lock files found next to documents
func DefaultExclusions() []string {
	return []string{
		".git/",
		".svn/",
		".idea/",
		".vscode/",
		"node_modules/",
		"__pycache__/",
		".DS_Store",
		"~$*",
		".~lock.*",
		"*.tmp",
		"*.bak",
		"*.swp",
	}
}
