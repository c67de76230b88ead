package layout

import "strings"

// Kind is the role of a declared option.
type Kind string

const (
	Params         Kind = "params"
	Deps           Kind = "deps"
	Outs           Kind = "outs"
	OutsNoCache    Kind = "outs_no_cache"
	OutsPersistent Kind = "outs_persistent"
	Metrics        Kind = "metrics"
	MetricsNoCache Kind = "metrics_no_cache"
	Plots          Kind = "plots"
	PlotsNoCache   Kind = "plots_no_cache"
	Result         Kind = "result"
)

// CanonicalOrder is the order kinds appear in the argument list.
var CanonicalOrder = []Kind{
	Deps, Outs, OutsNoCache, OutsPersistent, Params, Metrics, MetricsNoCache, Plots, PlotsNoCache,
}

// Flag returns the command line flag for k, e.g. "--outs-no-cache".
func (k Kind) Flag() string {
	return "--" + strings.ReplaceAll(string(k), "_", "-")
}

// Tabular reports whether values of k are stored as CSV tables.
func (k Kind) Tabular() bool {
	switch k {
	case Metrics, MetricsNoCache, Plots, PlotsNoCache:
		return true
	}
	return false
}

// ResultLike reports whether k is produced by running the stage.
func (k Kind) ResultLike() bool {
	return k == Result || k.Tabular()
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	if k == Result {
		return true
	}
	for _, c := range CanonicalOrder {
		if c == k {
			return true
		}
	}
	return false
}
