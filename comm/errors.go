// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/comm
//
// errors.go — sentinel errors for the comm package.
//
// Error policy:
//   - Only package-level sentinels are exposed; callers use errors.Is.
//   - Implementations attach rank/tag context with %w at the call site.

package comm

import (
	"errors"
	"fmt"
)

// ErrBadSize indicates a non-positive process count.
var ErrBadSize = errors.New("comm: process count must be > 0")

// ErrBadRank indicates a peer rank outside [0, Size()).
var ErrBadRank = errors.New("comm: rank out of range")

// ErrSelfMessage indicates an attempt to Send/Recv to the caller's own rank.
// Local data never travels through the transport.
var ErrSelfMessage = errors.New("comm: message addressed to self")

// ErrCollectiveMismatch indicates that ranks issued communication calls in a
// different order (SPMD violation). It is unrecoverable for the run.
var ErrCollectiveMismatch = errors.New("comm: collective call order mismatch")

// ErrClosed indicates use of a communicator whose transport has shut down.
var ErrClosed = errors.New("comm: communicator closed")

// commErrorf wraps err with an operation tag and the calling rank.
func commErrorf(op string, rank int, err error) error {
	return fmt.Errorf("%s(rank=%d): %w", op, rank, err)
}
