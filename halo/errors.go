// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/halo
//
// errors.go — sentinel errors for halo planning and exchange.
//
// Both sentinels describe a broken SPMD contract between two ranks. They are
// never retried: the run must stop.

package halo

import (
	"errors"
	"fmt"
)

var (
	// ErrHaloMismatch indicates a received payload whose length disagrees
	// with the planned receive list for that peer.
	ErrHaloMismatch = errors.New("halo: payload length disagrees with plan")

	// ErrDimensionMismatch indicates a local vector whose length is not the
	// shard's owned vertex count.
	ErrDimensionMismatch = errors.New("halo: vector length does not match local size")

	// ErrNotSealed indicates a plan requested for a graph still loading edges.
	ErrNotSealed = errors.New("halo: graph is not sealed")
)

const (
	opBuild    = "Build"
	opExchange = "Exchange"
)

// haloErrorf wraps err with an operation tag and the peer rank involved.
func haloErrorf(op string, peer int, err error) error {
	return fmt.Errorf("%s: peer=%d: %w", op, peer, err)
}
