package supervisor

import "time"

// Clock abstracts time for the readiness loop and shutdown waits so tests
// can simulate elapsed time without real delays.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
