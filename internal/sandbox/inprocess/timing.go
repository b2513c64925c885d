package inprocess

import "time"

func callStart() time.Time {
	return time.Now()
}

func callDuration(start time.Time) time.Duration {
	return time.Since(start)
}
