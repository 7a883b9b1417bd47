package core

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FlushBuildParallel rebuilds independent dirty subtrees concurrently. Two
// elements are independent if neither is an ancestor of the other; roots
// is expected to already be deduplicated in that sense: nothing here checks
// it, and overlapping roots would rebuild the same elements on two
// goroutines at once.
//
// This exists for embedders with many sibling subtrees invalidated in the
// same frame (e.g. a list of independently-animating rows) where building
// them serially would otherwise dominate the frame budget. It must not be
// used for elements that share mutable state without their own
// synchronization, since Build calls then run on different goroutines.
func FlushBuildParallel(ctx context.Context, roots []Element) error {
	group, _ := errgroup.WithContext(ctx)
	for _, root := range roots {
		root := root
		group.Go(func() error {
			if mountable, ok := root.(interface{ isMounted() bool }); ok && !mountable.isMounted() {
				return nil
			}
			root.RebuildIfNeeded()
			return nil
		})
	}
	return group.Wait()
}
