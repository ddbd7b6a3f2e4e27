package interceptor

import (
	"sync"
	"time"
)

// timings holds the start of every timed request, keyed by request id, until
// its response or error arrives.
type timings struct {
	starts sync.Map
	now    func() time.Time
}

func newTimings() *timings {
	return &timings{now: time.Now}
}

func (t *timings) start(id string) {
	t.starts.Store(id, t.now())
}

// stop returns the seconds elapsed since start and forgets the request.
func (t *timings) stop(id string) (float64, bool) {
	v, ok := t.starts.LoadAndDelete(id)
	if !ok {
		return 0, false
	}

	start, _ := v.(time.Time)

	elapsed := t.now().Sub(start).Seconds()
	if elapsed < 0 {
		return 0, true
	}

	return elapsed, true
}
