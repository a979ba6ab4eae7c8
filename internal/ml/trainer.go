// Package ml trains the two screening classifiers on the loaded dataset and
// scores new readings.
package ml

import (
	"context"
	"fmt"
	"time"

	"github.com/diabetecam/diabetecam/internal/dataset"
)

// Options selects the features and split used for one training run.
type Options struct {
	Features []string
	TestSize float64
	Seed     int64
}

// DefaultOptions are the form defaults.
func DefaultOptions() Options {
	return Options{Features: []string{"Glucose", "BMI"}, TestSize: 0.2, Seed: DefaultSeed}
}

func (o Options) normalize() (Options, error) {
	seen := map[string]bool{}
	var feats []string
	for _, f := range o.Features {
		if seen[f] {
			continue
		}
		if !dataset.IsFeature(f) {
			return o, fmt.Errorf("%w: %s", ErrUnknownFeature, f)
		}
		seen[f] = true
		feats = append(feats, f)
	}
	if len(feats) == 0 {
		return o, ErrNoFeatures
	}
	if o.TestSize < 0.1 || o.TestSize > 0.5 {
		return o, ErrTestSize
	}
	o.Features = feats
	return o, nil
}

// Guard admits one task at a time; sessions implement it.
type Guard interface {
	TryBegin() (done func(), ok bool)
}

// Trainer fits models on one dataset.
type Trainer struct {
	data     *dataset.Dataset
	C        float64
	MaxIter  int
	MaxDepth int
	now      func() time.Time
}

func NewTrainer(d *dataset.Dataset) *Trainer {
	if d == nil {
		d = dataset.Empty()
	}
	return &Trainer{data: d, C: 1, MaxIter: 1000, MaxDepth: DefaultMaxDepth, now: time.Now}
}

func (t *Trainer) Dataset() *dataset.Dataset { return t.data }

func (t *Trainer) prepare(ctx context.Context, opts Options) (Options, *Split, error) {
	if t.data.IsEmpty() {
		return opts, nil, ErrEmptyDataset
	}
	opts, err := opts.normalize()
	if err != nil {
		return opts, nil, err
	}
	if err := ctx.Err(); err != nil {
		return opts, nil, err
	}
	x, err := t.data.Matrix(opts.Features)
	if err != nil {
		return opts, nil, err
	}
	split, err := TrainTestSplit(x, t.data.Labels(), opts.TestSize, opts.Seed)
	if err != nil {
		return opts, nil, err
	}
	pos := 0
	for _, v := range split.YTrain {
		pos += v
	}
	if pos == 0 || pos == len(split.YTrain) {
		return opts, nil, ErrSingleClass
	}
	return opts, split, nil
}

func begin(g Guard) (func(), error) {
	if g == nil {
		return func() {}, nil
	}
	done, ok := g.TryBegin()
	if !ok {
		return nil, ErrBusy
	}
	return done, nil
}

// TrainLogReg standardises the training split and fits a logistic regression.
// It returns ErrBusy when g already runs a task.
func (t *Trainer) TrainLogReg(ctx context.Context, g Guard, opts Options) (*LogRegModel, error) {
	done, err := begin(g)
	if err != nil {
		return nil, err
	}
	defer done()

	opts, split, err := t.prepare(ctx, opts)
	if err != nil {
		return nil, err
	}
	scaler := FitScaler(split.XTrain)
	fit, err := fitLogistic(scaler.Transform(split.XTrain), split.YTrain, t.C, t.MaxIter)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := &LogRegModel{
		Features:   opts.Features,
		Scaler:     scaler,
		Coef:       fit.coef,
		Intercept:  fit.intercept,
		Iterations: fit.iterations,
		Converged:  fit.converged,
		TestSize:   opts.TestSize,
		TrainedAt:  t.now(),
	}
	m.Eval = Evaluate(split.YTest, m.predictMatrix(scaler.Transform(split.XTest)))
	return m, nil
}

// TrainTree fits a depth-limited CART tree on the raw features.
func (t *Trainer) TrainTree(ctx context.Context, g Guard, opts Options) (*TreeModel, error) {
	done, err := begin(g)
	if err != nil {
		return nil, err
	}
	defer done()

	opts, split, err := t.prepare(ctx, opts)
	if err != nil {
		return nil, err
	}
	root := growTree(split.XTrain, split.YTrain, t.MaxDepth)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := &TreeModel{
		Features:  opts.Features,
		Root:      root,
		Depth:     root.depth(),
		Leaves:    root.leaves(),
		TestSize:  opts.TestSize,
		TrainedAt: t.now(),
	}
	m.Eval = Evaluate(split.YTest, m.predictMatrix(split.XTest))
	return m, nil
}
