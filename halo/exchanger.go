// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/halo
//
// exchanger.go — one halo exchange per call.
//
// Determinism:
//   - Payload order follows the plan's ascending id lists, so the result does
//     not depend on goroutine scheduling.
//   - Each call fills a fresh output buffer; values from a previous exchange
//     cannot survive into the next one.

package halo

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/katalvlaran/lvlath-spectral/comm"
	"github.com/katalvlaran/lvlath-spectral/dgraph"
	"golang.org/x/exp/constraints"
	"golang.org/x/sync/errgroup"
)

// Stats counts traffic performed by an Exchanger.
type Stats struct {
	Exchanges uint64
	Messages  uint64
	ValuesOut uint64
	ValuesIn  uint64
}

// Exchanger performs halo exchanges for one shard over one communicator.
type Exchanger[F constraints.Float] struct {
	plan      *Plan
	comm      comm.PointToPoint
	localSize int
	extended  int

	sendSlots map[int][]int // peer → owned local slots, payload order
	recvSlots map[int][]int // peer → ghost extended slots, payload order

	exchanges atomic.Uint64
	messages  atomic.Uint64
	valuesOut atomic.Uint64
	valuesIn  atomic.Uint64
}

// NewExchanger resolves the plan's ids to local slots of g.
func NewExchanger[F constraints.Float](g *dgraph.Graph, plan *Plan, c comm.PointToPoint) (*Exchanger[F], error) {
	e := &Exchanger[F]{
		plan:      plan,
		comm:      c,
		localSize: g.LocalSize(),
		extended:  g.ExtendedSize(),
		sendSlots: make(map[int][]int, len(plan.peers)),
		recvSlots: make(map[int][]int, len(plan.peers)),
	}
	for _, peer := range plan.peers {
		s, err := slots(g, plan.send[peer])
		if err != nil {
			return nil, haloErrorf(opBuild, peer, err)
		}
		r, err := slots(g, plan.recv[peer])
		if err != nil {
			return nil, haloErrorf(opBuild, peer, err)
		}
		e.sendSlots[peer], e.recvSlots[peer] = s, r
	}

	return e, nil
}

func slots(g *dgraph.Graph, ids []int) ([]int, error) {
	out := make([]int, len(ids))
	for i, id := range ids {
		li, err := g.LocalIndex(id)
		if err != nil {
			return nil, err
		}
		out[i] = li
	}

	return out, nil
}

// Exchange returns local extended with the ghost values owned by peers.
// Every rank of the group must call Exchange the same number of times.
func (e *Exchanger[F]) Exchange(ctx context.Context, local []F) ([]F, error) {
	if len(local) != e.localSize {
		return nil, fmt.Errorf("%s: len=%d local=%d: %w", opExchange, len(local), e.localSize, ErrDimensionMismatch)
	}

	out := make([]F, e.extended)
	copy(out, local)

	g, gctx := errgroup.WithContext(ctx)
	for _, peer := range e.plan.peers {
		peer := peer
		sendSlots := e.sendSlots[peer]
		recvSlots := e.recvSlots[peer]

		g.Go(func() error {
			payload := make([]float64, len(sendSlots))
			for i, s := range sendSlots {
				payload[i] = float64(local[s])
			}
			if err := e.comm.Send(gctx, peer, comm.TagHalo, payload); err != nil {
				return haloErrorf(opExchange, peer, err)
			}
			e.valuesOut.Add(uint64(len(payload)))
			e.messages.Add(1)

			return nil
		})

		// Each goroutine writes a disjoint set of ghost slots.
		g.Go(func() error {
			payload, err := e.comm.Recv(gctx, peer, comm.TagHalo)
			if err != nil {
				return haloErrorf(opExchange, peer, err)
			}
			if len(payload) != len(recvSlots) {
				return fmt.Errorf("%s: peer=%d got=%d want=%d: %w",
					opExchange, peer, len(payload), len(recvSlots), ErrHaloMismatch)
			}
			for i, s := range recvSlots {
				out[s] = F(payload[i])
			}
			e.valuesIn.Add(uint64(len(payload)))

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.exchanges.Add(1)

	return out, nil
}

// Plan returns the schedule the exchanger runs.
func (e *Exchanger[F]) Plan() *Plan { return e.plan }

// Stats returns a snapshot of the traffic counters.
func (e *Exchanger[F]) Stats() Stats {
	return Stats{
		Exchanges: e.exchanges.Load(),
		Messages:  e.messages.Load(),
		ValuesOut: e.valuesOut.Load(),
		ValuesIn:  e.valuesIn.Load(),
	}
}
