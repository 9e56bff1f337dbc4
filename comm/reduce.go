// SPDX-License-Identifier: MIT

package comm

import (
	"context"
	"fmt"
	"math"
)

// reduceRoot is the rank that accumulates partial values.
const reduceRoot = 0

// AllReduceSum implements a sum reduction on top of any PointToPoint
// transport: every rank sends its value to rank 0, rank 0 adds them in
// ascending rank order and broadcasts the total.
//
// The fixed summation order makes the result bit-identical on every rank and
// across repeated runs with identical inputs.
//
// Complexity: 2·(P−1) messages, O(P) work on the root.
func AllReduceSum(ctx context.Context, p PointToPoint, x float64) (float64, error) {
	out, err := allReduce(ctx, p, opAllReduce, []float64{x}, add)
	if err != nil {
		return 0, err
	}

	return out[0], nil
}

// AllReduceSumSlice is AllReduceSum applied elementwise in one round trip.
// Every rank must pass a slice of the same length; xs is not modified.
func AllReduceSumSlice(ctx context.Context, p PointToPoint, xs []float64) ([]float64, error) {
	return allReduce(ctx, p, opAllReduceSlice, xs, add)
}

// AllReduceMax returns the maximum of x over all ranks.
func AllReduceMax(ctx context.Context, p PointToPoint, x float64) (float64, error) {
	out, err := allReduce(ctx, p, opAllReduceMax, []float64{x}, math.Max)
	if err != nil {
		return 0, err
	}

	return out[0], nil
}

func add(a, b float64) float64 { return a + b }

// allReduce gathers xs at the root, folds the partials in ascending rank
// order with combine and broadcasts the result.
func allReduce(ctx context.Context, p PointToPoint, op string, xs []float64, combine func(a, b float64) float64) ([]float64, error) {
	rank, size := p.Rank(), p.Size()
	acc := make([]float64, len(xs))
	copy(acc, xs)
	if size == 1 {
		return acc, nil
	}

	if rank != reduceRoot {
		if err := p.Send(ctx, reduceRoot, TagReduce, acc); err != nil {
			return nil, commErrorf(op, rank, err)
		}
		out, err := p.Recv(ctx, reduceRoot, TagBcast)
		if err != nil {
			return nil, commErrorf(op, rank, err)
		}
		if len(out) != len(xs) {
			return nil, commErrorf(op, rank, fmt.Errorf("bcast payload len=%d want %d: %w", len(out), len(xs), ErrCollectiveMismatch))
		}

		return out, nil
	}

	for src := 0; src < size; src++ {
		if src == reduceRoot {
			continue
		}
		part, err := p.Recv(ctx, src, TagReduce)
		if err != nil {
			return nil, commErrorf(op, rank, err)
		}
		if len(part) != len(acc) {
			return nil, commErrorf(op, rank, fmt.Errorf("partial from rank %d len=%d want %d: %w", src, len(part), len(acc), ErrCollectiveMismatch))
		}
		for i, v := range part {
			acc[i] = combine(acc[i], v)
		}
	}

	for dst := 0; dst < size; dst++ {
		if dst == reduceRoot {
			continue
		}
		if err := p.Send(ctx, dst, TagBcast, acc); err != nil {
			return nil, commErrorf(op, rank, err)
		}
	}

	return acc, nil
}
