// SPDX-License-Identifier: MIT

// Package comm_test verifies the in-process mesh and the sum reduction.
package comm_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/katalvlaran/lvlath-spectral/comm"
	"github.com/stretchr/testify/require"
)

// TestNewMesh_BadSize rejects an empty mesh.
func TestNewMesh_BadSize(t *testing.T) {
	_, err := comm.NewMesh(0)
	require.ErrorIs(t, err, comm.ErrBadSize)
}

// TestMesh_SendRecvFIFO verifies frames between one pair of ranks arrive in send order.
func TestMesh_SendRecvFIFO(t *testing.T) {
	m, err := comm.NewMesh(2)
	require.NoError(t, err)
	a, _ := m.Endpoint(0)
	b, _ := m.Endpoint(1)
	ctx := context.Background()

	payload := []float64{1, 2, 3}
	require.NoError(t, a.Send(ctx, 1, comm.TagHalo, payload))
	require.NoError(t, a.Send(ctx, 1, comm.TagHalo, []float64{4}))
	payload[0] = 99 // sender owns its buffer again after Send

	got, err := b.Recv(ctx, 0, comm.TagHalo)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, got)
	got, err = b.Recv(ctx, 0, comm.TagHalo)
	require.NoError(t, err)
	require.Equal(t, []float64{4}, got)
}

// TestMesh_PeerValidation rejects out-of-range and self peers.
func TestMesh_PeerValidation(t *testing.T) {
	m, err := comm.NewMesh(3)
	require.NoError(t, err)
	ep, _ := m.Endpoint(1)
	ctx := context.Background()

	require.ErrorIs(t, ep.Send(ctx, 1, comm.TagHalo, nil), comm.ErrSelfMessage)
	require.ErrorIs(t, ep.Send(ctx, 3, comm.TagHalo, nil), comm.ErrBadRank)
	_, err = ep.Recv(ctx, -1, comm.TagHalo)
	require.ErrorIs(t, err, comm.ErrBadRank)
	_, err = m.Endpoint(7)
	require.ErrorIs(t, err, comm.ErrBadRank)
}

// TestMesh_TagMismatch ensures a frame with the wrong tag fails Recv.
func TestMesh_TagMismatch(t *testing.T) {
	m, err := comm.NewMesh(2)
	require.NoError(t, err)
	a, _ := m.Endpoint(0)
	b, _ := m.Endpoint(1)
	ctx := context.Background()

	require.NoError(t, a.Send(ctx, 1, comm.TagReduce, []float64{1}))
	_, err = b.Recv(ctx, 0, comm.TagHalo)
	require.ErrorIs(t, err, comm.ErrCollectiveMismatch)
}

// TestAllReduceSum checks every rank sees the same total.
func TestAllReduceSum(t *testing.T) {
	for _, procs := range []int{1, 2, 3, 5} {
		procs := procs
		var (
			mu   sync.Mutex
			sums = make(map[int]float64)
		)
		err := comm.Run(context.Background(), procs, func(ctx context.Context, c comm.Communicator) error {
			s, err := c.AllReduceSum(ctx, float64(c.Rank()+1))
			if err != nil {
				return err
			}
			mu.Lock()
			sums[c.Rank()] = s
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
		want := float64(procs*(procs+1)) / 2
		require.Len(t, sums, procs)
		for r, s := range sums {
			require.Equal(t, want, s, "rank %d procs %d", r, procs)
		}
	}
}

// TestAllReduceSum_Repeated runs back-to-back reductions without crosstalk.
func TestAllReduceSum_Repeated(t *testing.T) {
	// Several reductions back to back must not interleave.
	err := comm.Run(context.Background(), 4, func(ctx context.Context, c comm.Communicator) error {
		for i := 0; i < 10; i++ {
			s, err := c.AllReduceSum(ctx, float64(i*c.Rank()))
			if err != nil {
				return err
			}
			if s != float64(i*6) {
				return errors.New("unexpected sum")
			}
		}
		return nil
	})
	require.NoError(t, err)
}

// TestRun_FirstErrorUnblocksPeers verifies a failing rank cancels peers blocked in Recv.
func TestRun_FirstErrorUnblocksPeers(t *testing.T) {
	boom := errors.New("boom")
	err := comm.Run(context.Background(), 3, func(ctx context.Context, c comm.Communicator) error {
		if c.Rank() == 2 {
			return boom
		}
		// Ranks 0 and 1 wait for a reduction rank 2 never joins.
		_, err := c.AllReduceSum(ctx, 1)
		return err
	})
	require.ErrorIs(t, err, boom)
}

func TestTag_String(t *testing.T) {
	require.Equal(t, "halo", comm.TagHalo.String())
	require.Equal(t, "reduce", comm.TagReduce.String())
	require.Equal(t, "bcast", comm.TagBcast.String())
	require.Equal(t, "tag(9)", comm.Tag(9).String())
}

// TestAllReduceMaxAndSlice checks the max reduction and the elementwise sum
// over several group sizes.
func TestAllReduceMaxAndSlice(t *testing.T) {
	for _, procs := range []int{1, 2, 4} {
		procs := procs
		err := comm.Run(context.Background(), procs, func(ctx context.Context, c comm.Communicator) error {
			mx, err := comm.AllReduceMax(ctx, c, float64(10-c.Rank()))
			if err != nil {
				return err
			}
			if mx != 10 {
				return errors.New("unexpected max")
			}
			in := []float64{1, float64(c.Rank()), 0}
			sums, err := comm.AllReduceSumSlice(ctx, c, in)
			if err != nil {
				return err
			}
			want := []float64{float64(procs), float64(procs*(procs-1)) / 2, 0}
			for i := range want {
				if sums[i] != want[i] {
					return errors.New("unexpected slice sum")
				}
			}
			if in[0] != 1 || in[1] != float64(c.Rank()) {
				return errors.New("input modified")
			}
			return nil
		})
		require.NoError(t, err, "procs %d", procs)
	}
}

// TestAllReduceSumSlice_LengthMismatch ensures ranks disagreeing on the
// slice length surface ErrCollectiveMismatch.
func TestAllReduceSumSlice_LengthMismatch(t *testing.T) {
	err := comm.Run(context.Background(), 2, func(ctx context.Context, c comm.Communicator) error {
		_, err := comm.AllReduceSumSlice(ctx, c, make([]float64, 1+c.Rank()))
		return err
	})
	require.ErrorIs(t, err, comm.ErrCollectiveMismatch)
}
