package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"metrics-tags-app/internal/domain"
)

// TagsQuery is one request to compute the tag keys shared by a set of
// metric identifiers inside a scope.
type TagsQuery struct {
	Metrics []string
	Scope   domain.TagScope
}

type Resolver struct {
	registry domain.Registry
	index    domain.TagIndex
}

func New(registry domain.Registry, index domain.TagIndex) *Resolver {
	return &Resolver{registry: registry, index: index}
}

// ComputeSharedTagKeys resolves every requested identifier, expands
// derived metrics into their base metrics, queries the tag index once
// per distinct base metric, and intersects the per-identifier tag-key
// sets. With no identifiers it lists every tag key observed in scope.
//
// An identifier that resolves to nothing contributes an empty set, so
// it drags the intersection to empty without failing the request. A
// derived metric whose definition cannot be fully resolved fails the
// whole request with a DerivedMetricError.
func (r *Resolver) ComputeSharedTagKeys(ctx context.Context, q TagsQuery) ([]domain.TagKey, error) {
	if len(q.Metrics) == 0 {
		all, err := r.index.AllTagKeys(ctx, q.Scope)
		if err != nil {
			return nil, fmt.Errorf("listing tag keys in scope: %w", err)
		}
		return sortedTagKeys(all), nil
	}

	identifiers := dedupe(q.Metrics)

	// One group of base metrics per requested identifier. A nil group
	// marks an identifier that resolved to nothing.
	groups := make([][]domain.ResolvedMetric, 0, len(identifiers))
	var invalid []string
	for _, identifier := range identifiers {
		res := r.registry.Resolve(identifier)
		switch res.Kind {
		case domain.ResolutionMetric:
			groups = append(groups, []domain.ResolvedMetric{res.Metric})
		case domain.ResolutionDerived:
			leaves, err := r.expandDerived(res.Derived)
			if err != nil {
				invalid = append(invalid, identifier)
				continue
			}
			groups = append(groups, leaves)
		default:
			groups = append(groups, nil)
		}
	}
	if len(invalid) > 0 {
		return nil, &DerivedMetricError{Metrics: invalid}
	}

	distinct, position := distinctMetrics(groups)

	results := make([]map[string]struct{}, len(distinct))
	g, gctx := errgroup.WithContext(ctx)
	for i, metric := range distinct {
		i, metric := i, metric
		g.Go(func() error {
			scope := q.Scope
			if scope.UseCase == "" {
				scope.UseCase = metric.UseCase
			}
			keys, err := r.index.TagKeysFor(gctx, metric, scope)
			if err != nil {
				return fmt.Errorf("querying tag keys for %s: %w", metric.MRI.Raw, err)
			}
			results[i] = keys
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var shared map[string]struct{}
	for i, group := range groups {
		contribution := make(map[string]struct{})
		for j, metric := range group {
			keys := results[position[metric.MRI.Raw]]
			if j == 0 {
				contribution = keys
				continue
			}
			contribution = intersect(contribution, keys)
		}
		if i == 0 {
			shared = contribution
			continue
		}
		shared = intersect(shared, contribution)
	}
	return sortedTagKeys(shared), nil
}

// expandDerived walks a derived definition down to its base metrics. A
// visited set rejects self-referencing definitions before any index
// query is issued.
func (r *Resolver) expandDerived(def *domain.DerivedMetric) ([]domain.ResolvedMetric, error) {
	visited := map[string]bool{def.Key: true}

	var leaves []domain.ResolvedMetric
	var walk func(d *domain.DerivedMetric) error
	walk = func(d *domain.DerivedMetric) error {
		for _, operand := range d.Operands {
			res := r.registry.Resolve(operand)
			switch res.Kind {
			case domain.ResolutionMetric:
				leaves = append(leaves, res.Metric)
			case domain.ResolutionDerived:
				if visited[res.Derived.Key] {
					return fmt.Errorf("derived metric %q forms a cycle through %q", def.Key, res.Derived.Key)
				}
				visited[res.Derived.Key] = true
				if err := walk(res.Derived); err != nil {
					return err
				}
			default:
				return fmt.Errorf("derived metric %q references unresolvable metric %q", def.Key, operand)
			}
		}
		return nil
	}

	if err := walk(def); err != nil {
		return nil, err
	}
	return leaves, nil
}

func dedupe(identifiers []string) []string {
	seen := make(map[string]bool, len(identifiers))
	out := make([]string, 0, len(identifiers))
	for _, identifier := range identifiers {
		if seen[identifier] {
			continue
		}
		seen[identifier] = true
		out = append(out, identifier)
	}
	return out
}

// distinctMetrics flattens the groups into a list of unique base
// metrics and a lookup from raw MRI to position in that list.
func distinctMetrics(groups [][]domain.ResolvedMetric) ([]domain.ResolvedMetric, map[string]int) {
	position := make(map[string]int)
	var distinct []domain.ResolvedMetric
	for _, group := range groups {
		for _, metric := range group {
			if _, ok := position[metric.MRI.Raw]; ok {
				continue
			}
			position[metric.MRI.Raw] = len(distinct)
			distinct = append(distinct, metric)
		}
	}
	return distinct, position
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(map[string]struct{}, len(a))
	for key := range a {
		if _, ok := b[key]; ok {
			out[key] = struct{}{}
		}
	}
	return out
}

func sortedTagKeys(keys map[string]struct{}) []domain.TagKey {
	names := make([]string, 0, len(keys))
	for key := range keys {
		names = append(names, key)
	}
	sort.Strings(names)

	out := make([]domain.TagKey, 0, len(names))
	for _, name := range names {
		out = append(out, domain.TagKey{Key: name})
	}
	return out
}

// DerivedMetricError reports derived metrics whose definitions cannot
// be resolved down to base metrics.
type DerivedMetricError struct {
	Metrics []string
}

func (e *DerivedMetricError) Error() string {
	return fmt.Sprintf(
		"the following metrics [%s] cannot be computed from single entities. Please revise the definition of these singular entity derived metrics",
		strings.Join(e.Metrics, ", "),
	)
}
