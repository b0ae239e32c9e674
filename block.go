// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package inceptiontime

import (
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/layers/activations"
	"github.com/gomlx/gomlx/pkg/ml/layers/batchnorm"
)

// blockSpec holds the resolved settings of one inception block. It is derived
// once from the Config (after broadcasting) and immutable afterwards.
type blockSpec struct {
	outputChannels     int
	bottleneckChannels int // 0 disables the bottleneck.
	kernelSize         int
	stride             int
	residual           bool
}

// blockKernelSizes returns the kernel sizes of the three sequential convolutions
// of a block: `[k, k/2, k/4]` (integer division, so 41 -> [41, 20, 10]).
func blockKernelSizes(kernelSize int) [3]int {
	return [3]int{kernelSize, kernelSize / 2, kernelSize / 4}
}

// inceptionBlock adds one inception block to the graph: an optional 1x1
// bottleneck, three same-padding convolutions with decreasing kernel sizes,
// batch normalization and a ReLU. If spec.residual is set, a parallel
// conv+norm+ReLU branch on the pre-bottleneck input is added to the output.
//
// x is shaped `[batch, channels, length]`; the output is
// `[batch, spec.outputChannels, length']`.
func inceptionBlock(ctx *context.Context, x *Node, spec blockSpec) *Node {
	x.AssertRank(3)
	shortcut := x

	// The bottleneck reduces channels before the expensive wide-kernel convolutions.
	// Kernel size 1, stride 1: it never changes the sequence length.
	if spec.bottleneckChannels > 0 {
		x = conv1D(ctx.In("bottleneck"), x, spec.bottleneckChannels, 1, 1, 1)
	}

	for ii, kernelSize := range blockKernelSizes(spec.kernelSize) {
		x = conv1D(ctx.Inf("conv_%02d", ii), x, spec.outputChannels, kernelSize, spec.stride, 1)
	}
	x = batchnorm.New(ctx.In("norm"), x, 1).Done()
	x = activations.Relu(x)

	if spec.residual {
		// The residual branch consumes the original (pre-bottleneck) input. Both
		// branches use the same stride, so their shapes match for the addition.
		resCtx := ctx.In("residual")
		residual := conv1D(resCtx.In("conv"), shortcut, spec.outputChannels, 1, spec.stride, 1)
		residual = batchnorm.New(resCtx.In("norm"), residual, 1).Done()
		residual = activations.Relu(residual)
		x = Add(x, residual)
	}
	return x
}
