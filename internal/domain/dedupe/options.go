package dedupe

// Option applies a configuration option to the name set.
type Option func(*nameSet)

// WithCapacity preallocates room for n names.
func WithCapacity(n int) Option {
	return func(d *nameSet) {
		if n > 0 {
			d.index = make(map[string]struct{}, n)
			d.order = make([]string, 0, n)
		}
	}
}
