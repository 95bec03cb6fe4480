package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"metrics-tags-app/internal/domain"
)

func TestRegistryResolve(t *testing.T) {
	registry := Default()

	// case 1: Public key resolves through the table
	res := registry.Resolve("session.all")
	assert.Equal(t, domain.ResolutionMetric, res.Kind)
	assert.Equal(t, "c:sessions/session@none", res.Metric.MRI.Raw)
	assert.Equal(t, domain.TypeCounter, res.Metric.Type)
	assert.Equal(t, "sessions", res.Metric.UseCase)

	// case 2: Literal MRI resolves without a table entry
	res = registry.Resolve("g:custom/page_load@millisecond")
	assert.Equal(t, domain.ResolutionMetric, res.Kind)
	assert.Equal(t, domain.TypeGauge, res.Metric.Type)
	assert.Equal(t, "custom", res.Metric.UseCase)

	// case 3: Derived key resolves to its definition
	res = registry.Resolve("session.crash_free_rate")
	assert.Equal(t, domain.ResolutionDerived, res.Kind)
	assert.NotNil(t, res.Derived)
	assert.Equal(t, "session.crash_free_rate", res.Derived.Key)
	assert.Equal(t, []string{"session.crashed", "session.all"}, res.Derived.Operands)

	// case 4: Derived definitions may reference other derived keys
	res = registry.Resolve("session.healthy")
	assert.Equal(t, domain.ResolutionDerived, res.Kind)
	assert.Contains(t, res.Derived.Operands, "session.errored")

	// case 5: Unknown alias and malformed MRI are both NotFound
	assert.Equal(t, domain.ResolutionNotFound, registry.Resolve("foo.bar").Kind)
	assert.Equal(t, domain.ResolutionNotFound, registry.Resolve("x:custom/clicks@none").Kind)
	assert.Equal(t, domain.ResolutionNotFound, registry.Resolve("").Kind)
}

func TestRegistryResolvePrecedence(t *testing.T) {
	// A key registered both as derived and public resolves as derived.
	registry := New(
		map[string]string{
			"rate":   "c:custom/rate@none",
			"broken": "not-an-mri",
		},
		[]domain.DerivedMetric{
			{Key: "rate", Op: "divide", Operands: []string{"c:custom/a@none", "c:custom/b@none"}},
		},
	)

	res := registry.Resolve("rate")
	assert.Equal(t, domain.ResolutionDerived, res.Kind)

	// A public key pointing at a malformed MRI is NotFound.
	assert.Equal(t, domain.ResolutionNotFound, registry.Resolve("broken").Kind)
}

func TestRegistryPublicToMRI(t *testing.T) {
	registry := Default()

	raw, ok := registry.PublicToMRI("transaction.duration")
	assert.True(t, ok)
	assert.Equal(t, "d:transactions/duration@millisecond", raw)

	_, ok = registry.PublicToMRI("foo.bar")
	assert.False(t, ok)
}
