package repository

// Option applies a configuration option to the JSONStore.
type Option func(*JSONStore)

// WithRosterPath sets the consolidated roster file.
func WithRosterPath(path string) Option {
	return func(s *JSONStore) {
		if path != "" {
			s.rosterPath = path
		}
	}
}

// WithObservationsPath sets the raw observations file.
func WithObservationsPath(path string) Option {
	return func(s *JSONStore) {
		if path != "" {
			s.observationsPath = path
		}
	}
}

// WithGroupsDir sets the directory holding one file per reference group.
func WithGroupsDir(dir string) Option {
	return func(s *JSONStore) {
		if dir != "" {
			s.groupsDir = dir
		}
	}
}
