// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package inceptiontime

import (
	"fmt"
	"testing"

	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/graph/graphtest"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
)

func TestSamePadding(t *testing.T) {
	testCases := []struct {
		inputLength, kernelSize, stride, dilation int
		want                                      [2]int
	}{
		{100, 41, 1, 1, [2]int{20, 20}},
		{100, 20, 1, 1, [2]int{9, 10}}, // Even kernel: the extra unit goes at the end.
		{100, 1, 1, 1, [2]int{0, 0}},
		{100, 3, 2, 1, [2]int{0, 1}},
		{100, 4, 2, 1, [2]int{1, 1}},
		{7, 3, 1, 3, [2]int{3, 3}}, // Dilation 3: effective kernel size 7.
		{5, 1, 5, 1, [2]int{0, 0}}, // Negative total padding clamps to 0.
	}
	for _, test := range testCases {
		got := SamePadding(test.inputLength, test.kernelSize, test.stride, test.dilation)
		require.Equalf(t, test.want, got, "SamePadding(%d, %d, %d, %d)",
			test.inputLength, test.kernelSize, test.stride, test.dilation)
	}

	// Same-length invariant: for stride 1 the padded convolution preserves the
	// input length for every kernel size, odd or even.
	const inputLength = 100
	for kernelSize := 1; kernelSize <= inputLength; kernelSize++ {
		padding := SamePadding(inputLength, kernelSize, 1, 1)
		outputLength := inputLength + padding[0] + padding[1] - kernelSize + 1
		require.Equalf(t, inputLength, outputLength, "kernelSize=%d, padding=%v", kernelSize, padding)
		// Odd totals pad the end, never the start.
		require.LessOrEqual(t, padding[1]-padding[0], 1)
		require.GreaterOrEqual(t, padding[1], padding[0])
	}

	// Strided: output length must be ceil(inputLength/stride).
	for stride := 1; stride <= 5; stride++ {
		for kernelSize := 1; kernelSize <= 10; kernelSize++ {
			padding := SamePadding(inputLength, kernelSize, stride, 1)
			outputLength := (inputLength+padding[0]+padding[1]-kernelSize)/stride + 1
			wantLength := (inputLength + stride - 1) / stride
			require.Equalf(t, wantLength, outputLength, "kernelSize=%d, stride=%d, padding=%v",
				kernelSize, stride, padding)
		}
	}

	require.Panics(t, func() { SamePadding(0, 3, 1, 1) })
	require.Panics(t, func() { SamePadding(100, 3, 0, 1) })
}

func TestConv1D(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	ctx := context.New()

	// Length is preserved for stride 1, for odd and even kernel sizes alike.
	for _, kernelSize := range []int{1, 2, 3, 8, 41} {
		t.Run(fmt.Sprintf("kernel_%d", kernelSize), func(t *testing.T) {
			gotT := context.MustExecOnce(backend, ctx, func(ctx *context.Context, g *Graph) *Node {
				x := Ones(g, shapes.Make(dtypes.Float32, 2, 3, 50))
				return conv1D(ctx.Inf("kernel_%d", kernelSize), x, 4, kernelSize, 1, 1)
			})
			require.NoError(t, gotT.Shape().Check(dtypes.Float32, 2, 4, 50))
		})
	}

	t.Run("stride", func(t *testing.T) {
		gotT := context.MustExecOnce(backend, ctx, func(ctx *context.Context, g *Graph) *Node {
			x := Ones(g, shapes.Make(dtypes.Float32, 2, 3, 51))
			return conv1D(ctx.In("stride"), x, 4, 5, 2, 1)
		})
		// ceil(51/2) == 26.
		require.NoError(t, gotT.Shape().Check(dtypes.Float32, 2, 4, 26))
	})

	t.Run("dilation", func(t *testing.T) {
		gotT := context.MustExecOnce(backend, ctx, func(ctx *context.Context, g *Graph) *Node {
			x := Ones(g, shapes.Make(dtypes.Float32, 2, 3, 50))
			return conv1D(ctx.In("dilation"), x, 4, 3, 1, 2)
		})
		require.NoError(t, gotT.Shape().Check(dtypes.Float32, 2, 4, 50))
	})
}
