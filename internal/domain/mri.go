package domain

import (
	"fmt"
	"regexp"
)

type MetricType string

const (
	TypeCounter      MetricType = "counter"
	TypeDistribution MetricType = "distribution"
	TypeSet          MetricType = "set"
	TypeGauge        MetricType = "gauge"
)

var mriPattern = regexp.MustCompile(`^([cdsg]):([a-z_]+)/([a-zA-Z0-9_.]+)@([a-zA-Z0-9_.]+)$`)

var mriTypes = map[string]MetricType{
	"c": TypeCounter,
	"d": TypeDistribution,
	"s": TypeSet,
	"g": TypeGauge,
}

// MRI is a fully qualified metric resource identifier of the form
// type:namespace/name@unit, e.g. d:transactions/duration@millisecond.
type MRI struct {
	Raw       string
	Type      MetricType
	Namespace string
	Name      string
	Unit      string
}

func ParseMRI(s string) (MRI, error) {
	matches := mriPattern.FindStringSubmatch(s)
	if matches == nil {
		return MRI{}, fmt.Errorf("string %q is not a valid MRI", s)
	}

	return MRI{
		Raw:       s,
		Type:      mriTypes[matches[1]],
		Namespace: matches[2],
		Name:      matches[3],
		Unit:      matches[4],
	}, nil
}

func IsMRI(s string) bool {
	return mriPattern.MatchString(s)
}
