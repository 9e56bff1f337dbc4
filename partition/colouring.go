// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/partition
//
// colouring.go — mutable per-vertex partition result.
//
// A Colouring is owned by the caller and kept apart from the read-only graph
// shard. It covers exactly the vertices the shard owns.

package partition

import (
	"context"
	"fmt"
	"sort"

	"github.com/katalvlaran/lvlath-spectral/comm"
	"github.com/katalvlaran/lvlath-spectral/dgraph"
)

const unset = -1

// Colouring maps each owned vertex id to a non-negative colour.
type Colouring struct {
	start   int
	colours []int // colours[v-start]; unset until assigned
}

// NewColouring returns an empty colouring for the vertices g owns.
func NewColouring(g *dgraph.Graph) *Colouring {
	c := &Colouring{start: g.Start(), colours: make([]int, g.LocalSize())}
	c.Reset()

	return c
}

// Len returns the number of owned vertices.
func (c *Colouring) Len() int { return len(c.colours) }

// Reset clears every assignment.
func (c *Colouring) Reset() {
	for i := range c.colours {
		c.colours[i] = unset
	}
}

func (c *Colouring) slot(v int) (int, bool) {
	i := v - c.start
	return i, i >= 0 && i < len(c.colours)
}

// Set assigns colour to the owned vertex v, overwriting any previous value.
func (c *Colouring) Set(v, colour int) error {
	if colour < 0 {
		return fmt.Errorf("Set(%d, %d): %w", v, colour, ErrBadColour)
	}
	i, ok := c.slot(v)
	if !ok {
		return fmt.Errorf("Set(%d): %w", v, ErrNotOwned)
	}
	c.colours[i] = colour

	return nil
}

// Colour returns the colour of v and whether one has been assigned.
func (c *Colouring) Colour(v int) (int, bool) {
	i, ok := c.slot(v)
	if !ok || c.colours[i] == unset {
		return 0, false
	}

	return c.colours[i], true
}

// Each calls fn for every assigned vertex in ascending id order until fn
// returns false.
func (c *Colouring) Each(fn func(v, colour int) bool) {
	for i, col := range c.colours {
		if col == unset {
			continue
		}
		if !fn(c.start+i, col) {
			return
		}
	}
}

// Counts returns the number of local vertices per colour.
func (c *Colouring) Counts() map[int]int {
	out := make(map[int]int)
	c.Each(func(_, col int) bool {
		out[col]++
		return true
	})

	return out
}

// Distinct returns the colours in use locally, ascending.
func (c *Colouring) Distinct() []int {
	counts := c.Counts()
	out := make([]int, 0, len(counts))
	for col := range counts {
		out = append(out, col)
	}
	sort.Ints(out)

	return out
}

// GlobalCounts returns the group-wide vertex count of every colour in
// [0, max], where max is the largest colour assigned on any rank. It is
// collective: one max reduction, then one elementwise sum over the counts.
// A colouring with nothing assigned anywhere yields an empty slice.
func (c *Colouring) GlobalCounts(ctx context.Context, cm comm.Communicator) ([]int, error) {
	local := c.Counts()
	localMax := unset
	for col := range local {
		localMax = max(localMax, col)
	}
	globalMax, err := comm.AllReduceMax(ctx, cm, float64(localMax))
	if err != nil {
		return nil, fmt.Errorf("GlobalCounts: %w", err)
	}
	if globalMax < 0 {
		return []int{}, nil
	}

	partial := make([]float64, int(globalMax)+1)
	for col, n := range local {
		partial[col] = float64(n)
	}
	sums, err := comm.AllReduceSumSlice(ctx, cm, partial)
	if err != nil {
		return nil, fmt.Errorf("GlobalCounts: %w", err)
	}
	out := make([]int, len(sums))
	for i, s := range sums {
		out[i] = int(s)
	}

	return out, nil
}
