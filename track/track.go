// Package track turns declared stage classes into stages registered with
// an external pipeline tool.
//
// A Class declares its options once. Each Node is one instance of a class,
// addressed by its Identity, whose option values live in the project's
// internals store, in a per-stage result file, or in per-attribute CSV
// files depending on the option kind. Writes are gated by the node's
// lifecycle phase.
package track

import (
	"errors"

	"github.com/flarebyte/stagetrack/internal/dvc"
	"github.com/flarebyte/stagetrack/internal/layout"
	"github.com/flarebyte/stagetrack/internal/lifecycle"
	"github.com/flarebyte/stagetrack/internal/serial"
	"github.com/flarebyte/stagetrack/internal/store"
	"github.com/flarebyte/stagetrack/internal/table"
)

var (
	// ErrNotAvailable reports an option value that was never written.
	ErrNotAvailable = store.ErrNotAvailable
	// ErrStateViolation reports a write the node's current phase forbids.
	ErrStateViolation = lifecycle.ErrStateViolation
	// ErrNotJSONSerializable reports a value the serializer can not represent.
	ErrNotJSONSerializable = serial.ErrNotJSONSerializable
	// ErrMissingRunMethod reports a class declared without a run function.
	ErrMissingRunMethod = errors.New("stage class has no run method")
	// ErrUnknownClass reports a class missing from the registry.
	ErrUnknownClass = errors.New("unknown stage class")
	// ErrUnknownOption reports an attribute the class does not declare.
	ErrUnknownOption = errors.New("unknown option")
)

type (
	Kind      = layout.Kind
	Phase     = lifecycle.Phase
	Path      = serial.Path
	Array     = serial.Array
	Table     = table.Table
	Converter = serial.Converter
	// ExitError is returned when the pipeline tool exits non-zero.
	ExitError = dvc.ExitError
)

const (
	KindParams         = layout.Params
	KindDeps           = layout.Deps
	KindOuts           = layout.Outs
	KindOutsNoCache    = layout.OutsNoCache
	KindOutsPersistent = layout.OutsPersistent
	KindMetrics        = layout.Metrics
	KindMetricsNoCache = layout.MetricsNoCache
	KindPlots          = layout.Plots
	KindPlotsNoCache   = layout.PlotsNoCache
	KindResult         = layout.Result
)

// NewTable returns an empty table for plots and metrics options.
func NewTable(indexName string, columns ...string) *Table {
	return table.New(indexName, columns...)
}

// NewArray returns a numeric array of the given shape.
func NewArray(shape []int, data []float64) (Array, error) {
	return serial.NewArray(shape, data)
}
