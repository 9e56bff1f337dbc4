// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/comm
//
// comm.go — the communicator interfaces shared by every transport.
//
// Contract:
//   - Frames between one ordered pair of ranks are delivered in send order.
//   - A Recv that finds a frame with a different tag fails with
//     ErrCollectiveMismatch instead of skipping it.
//   - Collectives must be entered by every rank in the same order.
//
// Errors:
//   - ErrBadRank for a peer outside [0, Size()), ErrSelfMessage for self.

package comm

import (
	"context"
	"fmt"
)

// Tag labels a frame with the kind of call that produced it.
type Tag uint8

// Frame tags. Values are part of the tcp wire format; do not reorder.
const (
	TagHalo   Tag = 1 // halo exchange payload
	TagReduce Tag = 2 // partial sum travelling to the reduction root
	TagBcast  Tag = 3 // reduced value travelling back from the root
)

// String implements fmt.Stringer.
func (t Tag) String() string {
	switch t {
	case TagHalo:
		return "halo"
	case TagReduce:
		return "reduce"
	case TagBcast:
		return "bcast"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// Operation tags used in wrapped errors.
const (
	opSend           = "Send"
	opRecv           = "Recv"
	opAllReduce      = "AllReduceSum"
	opAllReduceSlice = "AllReduceSumSlice"
	opAllReduceMax   = "AllReduceMax"
)

// PointToPoint is the transport half of a Communicator: tagged, FIFO
// point-to-point messaging between ranks of a fixed-size group.
type PointToPoint interface {
	// Rank returns this process' rank in [0, Size()).
	Rank() int

	// Size returns the number of ranks in the group.
	Size() int

	// Send delivers a copy of payload to dst. It may block until the transport
	// accepts the frame; the caller may reuse payload once Send returns.
	Send(ctx context.Context, dst int, tag Tag, payload []float64) error

	// Recv blocks until the next frame from src arrives and returns its payload.
	// A frame carrying a different tag yields ErrCollectiveMismatch.
	Recv(ctx context.Context, src int, tag Tag) ([]float64, error)
}

// Communicator is the capability object handed to halo exchange and the
// Lanczos engine. It adds a group-wide sum reduction to PointToPoint.
type Communicator interface {
	PointToPoint

	// AllReduceSum returns the sum of x over all ranks. Every rank must call it
	// the same number of times in the same order.
	AllReduceSum(ctx context.Context, x float64) (float64, error)
}

// checkPeer validates a peer rank for a point-to-point call.
func checkPeer(self, size, peer int) error {
	if peer < 0 || peer >= size {
		return fmt.Errorf("peer=%d size=%d: %w", peer, size, ErrBadRank)
	}
	if peer == self {
		return fmt.Errorf("peer=%d: %w", peer, ErrSelfMessage)
	}

	return nil
}

// CheckPeer is checkPeer for transports living outside this package.
func CheckPeer(self, size, peer int) error { return checkPeer(self, size, peer) }

// MismatchError builds the error returned when a frame with tag got arrives
// where want was expected.
func MismatchError(src int, want, got Tag) error {
	return fmt.Errorf("from rank %d: want %s, got %s: %w", src, want, got, ErrCollectiveMismatch)
}
