package naming

import (
	"metrics-tags-app/internal/domain"
)

// Registry maps public metric keys to MRIs and derived metric keys to
// their definitions. Literal MRI strings resolve without any lookup.
type Registry struct {
	public  map[string]string
	derived map[string]domain.DerivedMetric
}

func New(public map[string]string, derived []domain.DerivedMetric) *Registry {
	r := &Registry{
		public:  make(map[string]string, len(public)),
		derived: make(map[string]domain.DerivedMetric, len(derived)),
	}
	for key, mri := range public {
		r.public[key] = mri
	}
	for _, def := range derived {
		r.derived[def.Key] = def
	}
	return r
}

// Default returns a registry seeded with the session release-health
// metric family plus the transaction duration metric.
func Default() *Registry {
	return New(
		map[string]string{
			"session.all":                   "c:sessions/session@none",
			"session.abnormal":              "c:sessions/session@none",
			"session.crashed":               "c:sessions/session@none",
			"session.errored_preaggregated": "c:sessions/session@none",
			"session.errored_set":           "s:sessions/error@none",
			"session.duration":              "d:sessions/duration@second",
			"transaction.duration":          "d:transactions/duration@millisecond",
		},
		[]domain.DerivedMetric{
			{Key: "session.crash_free_rate", Op: "divide", Operands: []string{"session.crashed", "session.all"}},
			{Key: "session.errored", Op: "plus", Operands: []string{"session.errored_preaggregated", "session.errored_set"}},
			{Key: "session.healthy", Op: "minus", Operands: []string{"session.all", "session.errored"}},
		},
	)
}

// Resolve looks up a metric identifier. Derived keys win over public
// keys, public keys win over MRI parsing, and anything left over that
// does not parse as an MRI is NotFound.
func (r *Registry) Resolve(identifier string) domain.Resolution {
	if def, ok := r.derived[identifier]; ok {
		return domain.Resolution{Kind: domain.ResolutionDerived, Derived: &def}
	}

	if raw, ok := r.public[identifier]; ok {
		mri, err := domain.ParseMRI(raw)
		if err != nil {
			// A public key pointing at a malformed MRI is a broken
			// table entry, not a resolvable metric.
			return domain.Resolution{Kind: domain.ResolutionNotFound}
		}
		return domain.Resolution{Kind: domain.ResolutionMetric, Metric: resolvedFromMRI(mri)}
	}

	if mri, err := domain.ParseMRI(identifier); err == nil {
		return domain.Resolution{Kind: domain.ResolutionMetric, Metric: resolvedFromMRI(mri)}
	}

	return domain.Resolution{Kind: domain.ResolutionNotFound}
}

// PublicToMRI returns the MRI registered for a public key.
func (r *Registry) PublicToMRI(publicKey string) (string, bool) {
	raw, ok := r.public[publicKey]
	return raw, ok
}

func resolvedFromMRI(mri domain.MRI) domain.ResolvedMetric {
	return domain.ResolvedMetric{
		MRI:     mri,
		Type:    mri.Type,
		UseCase: mri.Namespace,
	}
}
