package domain

import "context"

// ResolvedMetric is a base (non-derived) metric the tag index can be
// queried for.
type ResolvedMetric struct {
	MRI     MRI
	Type    MetricType
	UseCase string
}

// DerivedMetric defines a metric as an expression over other metric
// identifiers. Operands may themselves name derived metrics.
type DerivedMetric struct {
	Key      string
	Op       string
	Operands []string
}

type ResolutionKind int

const (
	ResolutionNotFound ResolutionKind = iota
	ResolutionMetric
	ResolutionDerived
)

// Resolution is the outcome of looking up a metric identifier: a base
// metric, a derived definition, or nothing.
type Resolution struct {
	Kind    ResolutionKind
	Metric  ResolvedMetric
	Derived *DerivedMetric
}

type TagKey struct {
	Key string `json:"key"`
}

// TagObservation records that a tag key was seen on a metric at a point
// in time.
type TagObservation struct {
	Organization string `json:"organization"`
	MRI          string `json:"mri"`
	UseCase      string `json:"use_case"`
	ProjectID    int64  `json:"project_id"`
	TagKey       string `json:"tag_key"`
	Timestamp    int64  `json:"timestamp"`
}

// TagScope bounds a tag-key query: the organization, optional use case
// and project filters, and the time window in unix seconds.
type TagScope struct {
	Organization string
	UseCase      string
	Start        int64
	End          int64
	ProjectIDs   []int64
}

type Registry interface {
	Resolve(identifier string) Resolution
}

type TagIndex interface {
	TagKeysFor(ctx context.Context, metric ResolvedMetric, scope TagScope) (map[string]struct{}, error)
	AllTagKeys(ctx context.Context, scope TagScope) (map[string]struct{}, error)
}

type TagStore interface {
	TagIndex
	Init() error
	StoreObservation(ctx context.Context, obs TagObservation) error
	Close() error
}
