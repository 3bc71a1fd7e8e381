package testutil

import (
	"sync"

	dErrors "facepay/pkg/domain-errors"
)

// RaceResult counts how n racing calls ended, grouped by domain code.
type RaceResult struct {
	Successes int
	failures  map[dErrors.Code]int
}

// Failed returns how many calls failed with code. Errors that are not domain
// errors count as CodeInternal.
func (r *RaceResult) Failed(code dErrors.Code) int {
	return r.failures[code]
}

// Race starts n goroutines calling fn at once and waits for all of them.
func Race(n int, fn func(idx int) error) *RaceResult {
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		start = make(chan struct{})
		res   = &RaceResult{failures: make(map[dErrors.Code]int)}
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := fn(i)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				res.Successes++
				return
			}
			res.failures[dErrors.CodeOf(err)]++
		}()
	}
	close(start)
	wg.Wait()
	return res
}
