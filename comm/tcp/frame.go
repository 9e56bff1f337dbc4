// SPDX-License-Identifier: MIT
// Package: lvlath-spectral/comm/tcp
//
// frame.go — wire format of one message.
//
//	+-----+-------+-----------+-----------------+
//	| tag | flags | len (BE)  | body (len bytes)|
//	| u8  | u8    | u32       |                 |
//	+-----+-------+-----------+-----------------+
//
// body is the little-endian IEEE-754 encoding of the float64 payload, zstd
// compressed when flagCompressed is set.

package tcp

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/katalvlaran/lvlath-spectral/comm"
	"github.com/klauspost/compress/zstd"
)

const (
	headerLen      = 6
	flagCompressed = 1 << 0
	bytesPerValue  = 8
	// maxBodyLen caps a single frame so a corrupt header cannot make the reader
	// allocate unbounded memory.
	maxBodyLen = 1 << 30
)

// codec encodes and decodes frames; a nil enc/dec disables compression.
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec(compress bool) (*codec, error) {
	c := &codec{}
	// Decoder is always present so a peer that compresses can be read even if
	// this side does not.
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	c.dec = dec
	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			dec.Close()
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		c.enc = enc
	}

	return c, nil
}

func (c *codec) close() {
	if c.enc != nil {
		_ = c.enc.Close()
	}
	if c.dec != nil {
		c.dec.Close()
	}
}

// writeFrame serializes one frame to w.
func (c *codec) writeFrame(w io.Writer, tag comm.Tag, payload []float64) error {
	body := make([]byte, len(payload)*bytesPerValue)
	for i, v := range payload {
		binary.LittleEndian.PutUint64(body[i*bytesPerValue:], math.Float64bits(v))
	}

	var flags byte
	if c.enc != nil {
		body = c.enc.EncodeAll(body, nil)
		flags |= flagCompressed
	}
	if len(body) > maxBodyLen {
		return fmt.Errorf("frame body %d bytes: %w", len(body), ErrFrameTooLarge)
	}

	var hdr [headerLen]byte
	hdr[0] = byte(tag)
	hdr[1] = flags
	binary.BigEndian.PutUint32(hdr[2:], uint32(len(body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(body)

	return err
}

// readFrame reads one frame from r.
func (c *codec) readFrame(r io.Reader) (comm.Tag, []float64, error) {
	var hdr [headerLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, err
	}
	tag := comm.Tag(hdr[0])
	flags := hdr[1]
	n := binary.BigEndian.Uint32(hdr[2:])
	if n > maxBodyLen {
		return 0, nil, fmt.Errorf("frame body %d bytes: %w", n, ErrFrameTooLarge)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}
	if flags&flagCompressed != 0 {
		var err error
		body, err = c.dec.DecodeAll(body, nil)
		if err != nil {
			return 0, nil, fmt.Errorf("zstd decode: %w: %w", ErrCorruptFrame, err)
		}
	}
	if len(body)%bytesPerValue != 0 {
		return 0, nil, fmt.Errorf("body %d bytes: %w", len(body), ErrCorruptFrame)
	}

	payload := make([]float64, len(body)/bytesPerValue)
	for i := range payload {
		payload[i] = math.Float64frombits(binary.LittleEndian.Uint64(body[i*bytesPerValue:]))
	}

	return tag, payload, nil
}
