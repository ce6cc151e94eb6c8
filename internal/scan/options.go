package scan

import "regexp"

// Options configures the scanning behavior.
type Options struct {
	// Workers is the number of concurrent directory readers.
	Workers int

	// Xdev prevents crossing filesystem boundaries.
	Xdev bool

	// MaxErrors is the maximum number of scan errors to retain.
	// Zero means unlimited.
	MaxErrors int

	// ExcludePatterns are regular expressions for paths to skip.
	ExcludePatterns []*regexp.Regexp
}

// DefaultOptions returns sensible defaults for scanning.
func DefaultOptions() *Options {
	opts := &Options{
		Workers:   8,
		Xdev:      true,
		MaxErrors: 1000,
	}
	// Exclude NFS snapshot directories by default
	opts.AddExcludePattern(`/\.snapshot(/|$)`)
	return opts
}

// WithWorkers sets the number of workers.
func (o *Options) WithWorkers(n int) *Options {
	o.Workers = n
	return o
}

// WithXdev sets cross-device behavior.
func (o *Options) WithXdev(xdev bool) *Options {
	o.Xdev = xdev
	return o
}

// WithMaxErrors sets the maximum retained error count.
func (o *Options) WithMaxErrors(n int) *Options {
	o.MaxErrors = n
	return o
}

// AddExcludePattern adds a pattern to exclude.
func (o *Options) AddExcludePattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	o.ExcludePatterns = append(o.ExcludePatterns, re)
	return nil
}

// ShouldExclude checks if a path matches any exclude pattern.
func (o *Options) ShouldExclude(path string) bool {
	for _, re := range o.ExcludePatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
