// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package inceptiontime

import (
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/core/tensors/images"
	"github.com/gomlx/gomlx/pkg/ml/context"
	. "github.com/gomlx/gomlx/pkg/support/exceptions"
)

// SamePadding returns the `{start, end}` padding for a 1D convolution such that the
// output length is `ceil(inputLength/stride)`, for any kernel parity.
//
// Plain symmetric padding of `(kernelSize-1)/2` only preserves the length for odd
// kernels; this is the TensorFlow-style "same" padding that also handles even
// kernels, strides and dilations. When the total padding is odd, the extra unit
// goes at the end of the sequence.
//
// The result can be passed directly to `ConvolutionBuilder.PaddingPerDim`.
func SamePadding(inputLength, kernelSize, stride, dilation int) [2]int {
	if inputLength <= 0 || kernelSize <= 0 || stride <= 0 || dilation <= 0 {
		Panicf("SamePadding: inputLength=%d, kernelSize=%d, stride=%d and dilation=%d must all be > 0",
			inputLength, kernelSize, stride, dilation)
	}
	effectiveKernelSize := (kernelSize-1)*dilation + 1
	outputLength := (inputLength + stride - 1) / stride // ceil(inputLength/stride)
	totalPadding := (outputLength-1)*stride + effectiveKernelSize - inputLength
	if totalPadding < 0 {
		totalPadding = 0
	}
	return [2]int{totalPadding / 2, totalPadding - totalPadding/2}
}

// conv1D adds a bias-free 1D convolution with "same" padding, mapping x, shaped
// `[batch, channels, length]`, to `[batch, outputChannels, ceil(length/stride)]`.
//
// The kernel variable is named "weights" and created in the given scope, shaped
// `[outputChannels, inputChannels, kernelSize]` (channels-first).
//
// The padding depends on the length of x, so variable-length inputs each get a
// graph with the padding recomputed for their length.
func conv1D(ctx *context.Context, x *Node, outputChannels, kernelSize, stride, dilation int) *Node {
	g := x.Graph()
	x.AssertRank(3)
	inputChannels := x.Shape().Dimensions[1]
	inputLength := x.Shape().Dimensions[2]
	kernelVar := ctx.VariableWithShape("weights",
		shapes.Make(x.DType(), outputChannels, inputChannels, kernelSize))
	kernel := kernelVar.ValueGraph(g)
	conv := Convolve(x, kernel).
		ChannelsAxis(images.ChannelsFirst).
		PaddingPerDim([][2]int{SamePadding(inputLength, kernelSize, stride, dilation)}).
		StridePerAxis(stride)
	if dilation != 1 {
		conv.DilationPerAxis(dilation)
	}
	return conv.Done()
}
