package service

import "time"

// now matches Postgres timestamp precision so values survive a round trip.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
