package service

import "time"

// Now is the server clock: UTC, second precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func clock(now func() time.Time) time.Time {
	if now == nil {
		return Now()
	}
	return now().UTC().Truncate(time.Second)
}
