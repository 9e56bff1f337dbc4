// SPDX-License-Identifier: MIT

package tcp

import "errors"

var (
	// ErrFrameTooLarge indicates a frame body above the 1 GiB cap.
	ErrFrameTooLarge = errors.New("tcp: frame too large")

	// ErrCorruptFrame indicates a body that is not a whole number of float64
	// values or fails to decompress.
	ErrCorruptFrame = errors.New("tcp: corrupt frame")

	// ErrHandshake indicates an unexpected or duplicate peer rank on accept.
	ErrHandshake = errors.New("tcp: bad handshake")

	// ErrPeers indicates a peer address list inconsistent with the rank.
	ErrPeers = errors.New("tcp: invalid peer list")
)
