// SPDX-License-Identifier: MIT

package comm

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RankFunc is the body of an SPMD program: it runs once per rank.
type RankFunc func(ctx context.Context, c Communicator) error

// Run launches fn on every rank of a fresh in-process Mesh of procs ranks and
// waits for all of them. The first failing rank cancels the shared context so
// that peers blocked in Send/Recv return instead of deadlocking; Run then
// reports that first error.
func Run(ctx context.Context, procs int, fn RankFunc) error {
	m, err := NewMesh(procs)
	if err != nil {
		return err
	}

	return RunOn(ctx, m, fn)
}

// RunOn is Run on an existing mesh.
func RunOn(ctx context.Context, m *Mesh, fn RankFunc) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, ep := range m.Endpoints() {
		ep := ep
		g.Go(func() error {
			return fn(gctx, ep)
		})
	}

	return g.Wait()
}
