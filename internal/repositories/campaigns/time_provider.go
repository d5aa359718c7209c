package campaigns

import "time"

//go:generate mockgen -destination=mocks/mock_time_provider.go -package=mocks github.com/meeplenest/meeplenest/internal/repositories/campaigns TimeProvider

// TimeProvider supplies timestamps so tests can pin the clock.
type TimeProvider interface {
	Now() time.Time
}

// UTCTimeProvider returns the current wall-clock time in UTC.
type UTCTimeProvider struct{}

// Now returns the current UTC time.
func (UTCTimeProvider) Now() time.Time {
	return time.Now().UTC()
}
