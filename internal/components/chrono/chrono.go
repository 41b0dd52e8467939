package chrono

import "time"

// API is the interface that anything depending on the system clock should use.
//
// note: fault injection point
type API interface {
	// Now returns the current time in UTC.
	Now() time.Time
}

// StandardImpl is the standard implementation of API using the standard library.
type StandardImpl struct{}

func NewStandardImpl() StandardImpl {
	return StandardImpl{}
}

func (StandardImpl) Now() time.Time {
	return time.Now().UTC()
}

// UnixSeconds returns the whole seconds since 1970-01-01T00:00:00 UTC for the
// current time of the given clock.
func UnixSeconds(clock API) int64 {
	return clock.Now().Unix()
}
