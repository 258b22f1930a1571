// Package fanout issues a fixed number of operations at once and waits for all of them.
package fanout

import (
	"context"
	"fmt"
	"sync"
)

// Outcome holds one result slot per launched operation, indexed by launch order.
type Outcome struct {
	Errs []error
}

// Failed returns the number of operations that returned an error.
func (o Outcome) Failed() int {
	n := 0
	for _, err := range o.Errs {
		if err != nil {
			n++
		}
	}
	return n
}

// Err returns nil when every operation succeeded and an *Error otherwise.
func (o Outcome) Err() error {
	failed := o.Failed()
	if failed == 0 {
		return nil
	}
	e := &Error{Total: len(o.Errs), Failed: failed, First: -1}
	for i, err := range o.Errs {
		if err == nil {
			continue
		}
		if e.First < 0 {
			e.First = i
		}
		e.errs = append(e.errs, err)
	}
	return e
}

// Error reports a fan-out in which at least one operation failed.
// It unwraps to every individual failure.
type Error struct {
	Total  int
	Failed int
	// First is the launch index of the first failed operation.
	First int

	errs []error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d of %d operations failed (first at #%d: %v)", e.Failed, e.Total, e.First, e.errs[0])
}

func (e *Error) Unwrap() []error { return e.errs }

// Run launches fn(ctx, i) for i = 0..n-1 in index order, each on its own
// goroutine, and returns once every call has returned. Failures do not stop
// the remaining calls; all results are reported in the Outcome.
func Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) Outcome {
	out := Outcome{Errs: make([]error, n)}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			out.Errs[i] = fn(ctx, i)
		}(i)
	}
	wg.Wait()
	return out
}
