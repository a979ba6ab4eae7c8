package ml

import "errors"

var (
	ErrNoFeatures     = errors.New("ml: no feature selected")
	ErrEmptyDataset   = errors.New("ml: dataset is empty")
	ErrBusy           = errors.New("ml: a training run is already in progress")
	ErrTestSize       = errors.New("ml: test size must be between 10% and 50%")
	ErrSingleClass    = errors.New("ml: training split holds a single class")
	ErrMissingFeature = errors.New("ml: input lacks a model feature")
	ErrNotFinite      = errors.New("ml: non-finite input value")
	ErrUnknownFeature = errors.New("ml: unknown feature")
	ErrDidNotConverge = errors.New("ml: optimisation produced non-finite weights")
)
