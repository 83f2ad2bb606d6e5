package memstore

import "time"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithClock sets the time source used for created-at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}
