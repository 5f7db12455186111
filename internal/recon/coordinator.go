package recon

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Coordinator deduplicates pipeline runs per cache key. The expected usage is
// at most one in-flight load: a caller arriving while a run is outstanding
// awaits that run's result instead of starting a duplicate.
type Coordinator struct {
	group singleflight.Group
}

// NewCoordinator returns an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Run executes fn under the given key, or joins the in-flight execution for
// that key. The run itself is detached from the initiating caller's
// cancellation, so a joiner is not failed by the first caller disconnecting;
// a caller whose own context expires stops waiting without aborting the run.
// The third return reports whether the result was shared between callers.
func (c *Coordinator) Run(ctx context.Context, key string, fn func(context.Context) (*Result, error)) (*Result, error, bool) {
	ch := c.group.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		result, _ := res.Val.(*Result)
		return result, res.Err, res.Shared
	case <-ctx.Done():
		return nil, ctx.Err(), false
	}
}
