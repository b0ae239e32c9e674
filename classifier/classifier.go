// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package classifier serves a trained InceptionTime model for inference.
//
// It loads a checkpoint -- hyperparameters included, so the architecture is
// rebuilt exactly as trained -- and offers Classify/ClassifyBatch methods that
// map multivariate series to the predicted class.
//
// This is an example of how to serve a model for inference; training the
// model (and saving the checkpoint) is done with GoMLX's train package.
package classifier

import (
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/context/checkpoints"
	"github.com/gomlx/gomlx/pkg/support/exceptions"
	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/gomlx/inceptiontime"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Classifier holds an InceptionTime model compiled for inference.
// It will use XLA with GPU if available, or CPU by default; the backend can be
// configured with GOMLX_BACKEND.
type Classifier struct {
	// backend is created with defaults, which uses GOMLX_BACKEND if it is set.
	backend backends.Backend

	// ctx with the model's weights and hyperparameters.
	ctx *context.Context

	// exec runs the model graph plus an ArgMax over the logits.
	exec *context.Exec
}

// New creates a Classifier from the checkpoint saved in checkpointDir.
//
// The checkpoint provides both the weights and the inception_* hyperparameters,
// so the exact trained architecture is rebuilt.
func New(checkpointDir string) (*Classifier, error) {
	c := &Classifier{
		backend: backends.MustNew(),
		ctx:     context.New(),
	}

	// We don't need to keep the checkpoint handler around, since we are not
	// going to use it to save.
	handler, err := checkpoints.Load(c.ctx).
		Dir(checkpointDir).
		Done()
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to load InceptionTime model from %q", checkpointDir)
	}
	if has, err := handler.HasCheckpoints(); err != nil || !has {
		return nil, errors.Errorf("no InceptionTime checkpoint found in %q", checkpointDir)
	}
	// Mark the context to reuse variables: it will be an error if the model
	// built below doesn't match the variables of the checkpoint.
	c.ctx = c.ctx.Reuse()
	klog.V(1).Infof("classifier: loaded InceptionTime checkpoint from %q (%d blocks, %d classes)",
		checkpointDir,
		context.GetParamOr(c.ctx, inceptiontime.ParamNumBlocks, 6),
		context.GetParamOr(c.ctx, inceptiontime.ParamNumClasses, 1))

	c.exec, err = context.NewExec(c.backend, c.ctx, func(ctx *context.Context, series *graph.Node) *graph.Node {
		single := series.Rank() == 2
		if single {
			series = graph.ExpandAxes(series, 0) // Create a batch dimension of size 1.
		}
		logits := inceptiontime.ModelGraph(ctx, nil, []*graph.Node{series})[0]
		// Take the class with the highest logit value.
		choices := graph.ArgMax(logits, -1, dtypes.Int32)
		if single {
			choices = graph.Reshape(choices) // No dimensions given, means a scalar.
		}
		return choices
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "cannot build model from checkpoint %q", checkpointDir)
	}
	return c, nil
}

// Classify returns the predicted class of one multivariate series, shaped
// `[channels][length]`. The number of channels must match the one the model
// was trained with; any length works.
func (c *Classifier) Classify(series [][]float32) (int32, error) {
	input := tensors.FromValue(series)
	var outputs []*tensors.Tensor
	err := exceptions.TryCatch[error](func() { outputs = c.exec.MustExec(input) })
	if err != nil {
		return 0, errors.WithMessage(err, "failed to classify series")
	}
	return tensors.ToScalar[int32](outputs[0]), nil
}

// ClassifyBatch returns the predicted class for each series of the batch,
// shaped `[batch][channels][length]`.
func (c *Classifier) ClassifyBatch(batch [][][]float32) ([]int32, error) {
	input := tensors.FromValue(batch)
	var outputs []*tensors.Tensor
	err := exceptions.TryCatch[error](func() { outputs = c.exec.MustExec(input) })
	if err != nil {
		return nil, errors.WithMessage(err, "failed to classify batch")
	}
	return outputs[0].Value().([]int32), nil
}
