// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package inceptiontime implements the InceptionTime architecture for
// time-series classification, from "InceptionTime: Finding AlexNet for Time
// Series Classification" (https://arxiv.org/abs/1909.04939).
//
// The model is a stack of inception blocks -- each an optional 1x1 bottleneck
// followed by three "same"-padding 1D convolutions with decreasing kernel
// sizes, batch normalization and ReLU, with residual connections every third
// block by default -- followed by global average pooling over the time axis
// and a linear readout to the class logits.
//
// Inputs are shaped `[batch, channels, length]`. Because of the global average
// pooling the same model works on any sequence length.
//
// To build the graph use BuildGraph and configure it:
//
//	logits := inceptiontime.BuildGraph(ctx, series).
//		NumBlocks(6).
//		Channels(32).
//		NumClasses(10).
//		Done()
//
// Alternatively, set the Param* hyperparameters in the context and use
// ModelGraph, which is compatible with GoMLX's train.ModelFn.
package inceptiontime

import (
	"fmt"

	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/layers/fnn"
	. "github.com/gomlx/gomlx/pkg/support/exceptions"
)

// Hyperparameters read by ModelGraph from the context. The builder methods of
// Config take precedence when BuildGraph is used directly.
const (
	// ParamNumBlocks is the number of inception blocks. Default is 6.
	ParamNumBlocks = "inception_num_blocks"

	// ParamChannels is the number of output channels of every block. Default is 32.
	ParamChannels = "inception_channels"

	// ParamBottleneckChannels is the number of channels of the 1x1 bottleneck
	// convolution of every block. 0 disables the bottleneck. Default is 32.
	ParamBottleneckChannels = "inception_bottleneck_channels"

	// ParamKernelSize is the kernel size of the first convolution of every block;
	// the other two use its half and quarter. Default is 41.
	ParamKernelSize = "inception_kernel_size"

	// ParamResiduals selects the residual connections policy: "default" (every
	// third block), "all" or "none". Default is "default".
	ParamResiduals = "inception_residuals"

	// ParamNumClasses is the number of classes predicted by the readout layer.
	// Default is 1.
	ParamNumClasses = "inception_num_classes"
)

// Config is returned by BuildGraph to configure the InceptionTime model.
// Once set up, call Done and it returns the logits Node.
type Config struct {
	ctx   *context.Context
	input *Node

	numBlocks  int
	numClasses int

	channels         int
	channelsPerBlock []int

	bottleneckChannels         int
	bottleneckChannelsPerBlock []int

	kernelSize         int
	kernelSizePerBlock []int

	residuals         bool
	residualsPerBlock []bool
	residualsSet      bool

	withAliases bool
}

// BuildGraph configures an InceptionTime model over x, shaped
// `[batch, channels, length]`. Variables are created (or reused) in the given
// context ctx.
//
// The returned Config gives access to the various hyperparameters of the
// model. Once set, call Done and it will return the logits, shaped
// `[batch, numClasses]` -- no softmax applied.
//
// The defaults are the ones suggested in the InceptionTime paper: 6 blocks of
// 32 channels, bottlenecks of 32 channels, kernel sizes 41 and a residual
// connection every third block.
func BuildGraph(ctx *context.Context, x *Node) *Config {
	return &Config{
		ctx:                ctx,
		input:              x,
		numBlocks:          6,
		numClasses:         1,
		channels:           32,
		bottleneckChannels: 32,
		kernelSize:         41,
	}
}

// NumBlocks sets the number of inception blocks. It must be >= 1.
// Default is 6.
func (c *Config) NumBlocks(numBlocks int) *Config {
	if numBlocks < 1 {
		Panicf("inceptiontime: NumBlocks must be >= 1, got %d", numBlocks)
	}
	c.numBlocks = numBlocks
	return c
}

// NumClasses sets the number of classes of the readout layer, which defines
// the last dimension of the logits returned by Done. It must be >= 1.
// Default is 1.
func (c *Config) NumClasses(numClasses int) *Config {
	if numClasses < 1 {
		Panicf("inceptiontime: NumClasses must be >= 1, got %d", numClasses)
	}
	c.numClasses = numClasses
	return c
}

// Channels sets the number of output channels of every block. Default is 32.
//
// See ChannelsPerBlock to set a different value per block.
func (c *Config) Channels(channels int) *Config {
	if channels <= 0 {
		Panicf("inceptiontime: Channels must be > 0, got %d", channels)
	}
	c.channels = channels
	c.channelsPerBlock = nil
	return c
}

// ChannelsPerBlock sets the number of output channels of each block
// individually. It must be given exactly NumBlocks values -- checked at Done.
func (c *Config) ChannelsPerBlock(channels ...int) *Config {
	c.channelsPerBlock = channels
	return c
}

// BottleneckChannels sets the number of channels of the 1x1 bottleneck
// convolution of every block. Set it to 0 to disable the bottleneck, in which
// case the first convolution of each block consumes its input channels
// directly. Default is 32.
//
// See BottleneckChannelsPerBlock to set a different value per block.
func (c *Config) BottleneckChannels(channels int) *Config {
	if channels < 0 {
		Panicf("inceptiontime: BottleneckChannels must be >= 0, got %d", channels)
	}
	c.bottleneckChannels = channels
	c.bottleneckChannelsPerBlock = nil
	return c
}

// BottleneckChannelsPerBlock sets the bottleneck channels of each block
// individually, 0 disabling the bottleneck for that block. It must be given
// exactly NumBlocks values -- checked at Done.
func (c *Config) BottleneckChannelsPerBlock(channels ...int) *Config {
	c.bottleneckChannelsPerBlock = channels
	return c
}

// KernelSize sets the kernel size of the first convolution of every block;
// the remaining two convolutions use its half and quarter (integer division).
// Default is 41, yielding kernels of sizes 41, 20 and 10.
//
// See KernelSizePerBlock to set a different value per block.
func (c *Config) KernelSize(kernelSize int) *Config {
	if kernelSize < 1 {
		Panicf("inceptiontime: KernelSize must be >= 1, got %d", kernelSize)
	}
	c.kernelSize = kernelSize
	c.kernelSizePerBlock = nil
	return c
}

// KernelSizePerBlock sets the kernel size of each block individually. It must
// be given exactly NumBlocks values -- checked at Done.
func (c *Config) KernelSizePerBlock(kernelSizes ...int) *Config {
	c.kernelSizePerBlock = kernelSizes
	return c
}

// Residuals enables or disables the residual connection on every block.
//
// If neither Residuals nor ResidualsPerBlock is called, every third block
// (blocks 2, 5, 8, ...) gets a residual connection, as in the original model.
func (c *Config) Residuals(residuals bool) *Config {
	c.residuals = residuals
	c.residualsPerBlock = nil
	c.residualsSet = true
	return c
}

// ResidualsPerBlock sets the residual connection of each block individually.
// It must be given exactly NumBlocks values -- checked at Done.
func (c *Config) ResidualsPerBlock(residuals ...bool) *Config {
	c.residualsPerBlock = residuals
	c.residualsSet = true
	return c
}

// WithAliases sets whether to create aliases ("/inceptiontime/block_000/output",
// ..., "/inceptiontime/logits") for the output nodes of each block, allowing
// them to be retrieved with Graph.GetNodeByAlias. Default is false.
func (c *Config) WithAliases(withAliases bool) *Config {
	c.withAliases = withAliases
	return c
}

// defaultResiduals returns the residual flags of the default policy: every
// third block, starting at block 2.
func defaultResiduals(numBlocks int) []bool {
	residuals := make([]bool, numBlocks)
	for ii := range residuals {
		residuals[ii] = ii%3 == 2
	}
	return residuals
}

// expandPerBlock broadcasts a scalar hyperparameter to all blocks, or checks
// that an explicitly given per-block list has exactly numBlocks values.
func expandPerBlock[T any](name string, scalar T, perBlock []T, numBlocks int) []T {
	if perBlock == nil {
		expanded := make([]T, numBlocks)
		for ii := range expanded {
			expanded[ii] = scalar
		}
		return expanded
	}
	if len(perBlock) != numBlocks {
		Panicf("inceptiontime: %s was given %d per-block values, but the model has %d blocks",
			name, len(perBlock), numBlocks)
	}
	return perBlock
}

// Done builds the InceptionTime graph with the current configuration and
// returns the logits, shaped `[batch, numClasses]`.
//
// It panics if a per-block hyperparameter list doesn't have exactly NumBlocks
// values.
func (c *Config) Done() *Node {
	x := c.input
	x.AssertRank(3) // [batch, channels, length]
	g := x.Graph()
	if c.withAliases {
		g.PushAliasScope("inceptiontime")
		defer g.PopAliasScope()
	}

	channels := expandPerBlock("ChannelsPerBlock", c.channels, c.channelsPerBlock, c.numBlocks)
	bottlenecks := expandPerBlock("BottleneckChannelsPerBlock", c.bottleneckChannels, c.bottleneckChannelsPerBlock, c.numBlocks)
	kernelSizes := expandPerBlock("KernelSizePerBlock", c.kernelSize, c.kernelSizePerBlock, c.numBlocks)
	var residuals []bool
	if c.residualsSet {
		residuals = expandPerBlock("ResidualsPerBlock", c.residuals, c.residualsPerBlock, c.numBlocks)
	} else {
		residuals = defaultResiduals(c.numBlocks)
	}

	batchSize := x.Shape().Dimensions[0]
	for ii := range c.numBlocks {
		x = inceptionBlock(c.ctx.Inf("block_%03d", ii), x, blockSpec{
			outputChannels:     channels[ii],
			bottleneckChannels: bottlenecks[ii],
			kernelSize:         kernelSizes[ii],
			stride:             1,
			residual:           residuals[ii],
		})
		if c.withAliases {
			x = x.WithAlias(fmt.Sprintf("block_%03d/output", ii))
		}
	}

	// Global average pooling over the time axis: this is what makes the readout
	// width depend only on the last block's channels, not the input length.
	x = ReduceMean(x, -1)
	x.AssertDims(batchSize, channels[c.numBlocks-1])

	logits := fnn.New(c.ctx.In("readout"), x, c.numClasses).Done()
	if c.withAliases {
		logits = logits.WithAlias("logits")
	}
	logits.AssertDims(batchSize, c.numClasses)
	return logits
}

// ModelGraph builds an InceptionTime model configured by the Param*
// hyperparameters in the context, under the "model" scope. It implements
// train.ModelFn, so it can be passed directly to a train.Trainer, and it is
// what the classifier package uses to rebuild a model from a checkpoint.
//
// inputs must hold a single tensor shaped `[batch, channels, length]`; it
// returns a single logits tensor, shaped `[batch, num_classes]`.
func ModelGraph(ctx *context.Context, spec any, inputs []*Node) []*Node {
	_ = spec
	x := inputs[0]
	cfg := BuildGraph(ctx.In("model"), x).
		NumBlocks(context.GetParamOr(ctx, ParamNumBlocks, 6)).
		Channels(context.GetParamOr(ctx, ParamChannels, 32)).
		BottleneckChannels(context.GetParamOr(ctx, ParamBottleneckChannels, 32)).
		KernelSize(context.GetParamOr(ctx, ParamKernelSize, 41)).
		NumClasses(context.GetParamOr(ctx, ParamNumClasses, 1))
	switch residuals := context.GetParamOr(ctx, ParamResiduals, "default"); residuals {
	case "default":
		// Keep the every-third-block policy.
	case "all":
		cfg.Residuals(true)
	case "none":
		cfg.Residuals(false)
	default:
		Panicf(`invalid %q value %q -- valid values are "default", "all" and "none"`,
			ParamResiduals, residuals)
	}
	return []*Node{cfg.Done()}
}
