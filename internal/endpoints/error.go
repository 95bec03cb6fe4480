package endpoints

import (
	"errors"

	"metrics-tags-app/internal/resolver"
)

const (
	API_SUCCESS      = iota + 404000 // 404000
	API_FAILURE                      // 404001 - Generic API failure
	API_UNAUTHORIZED                 // 404002 - Authentication/Authorization failure
)

const (
	INVALID_PARAMETERS     = iota + 201 // 201 - Invalid URL/query parameters (e.g., non-integer project)
	INVALID_TIME_RANGE                  // 202 - Start time is after end time
	INVALID_STATS_PERIOD                // 203 - statsPeriod does not parse (expected e.g. 30m, 3h, 1d, 2w)
	INVALID_USE_CASE                    // 204 - useCase is not a known dataset scope
	DERIVED_METRIC_INVALID              // 205 - Derived metric definition cannot be resolved
	TAG_QUERY_FAILED                    // 206 - Tag index query failed
	REQUEST_CANCELLED                   // 207 - Request was cancelled by client or server timeout
)

var (
	ErrInvalidParameters  = errors.New("invalid project parameter; must be integers")
	ErrInvalidTimeRange   = errors.New("start timestamp cannot be after end timestamp")
	ErrInvalidStatsPeriod = errors.New("invalid statsPeriod; expected forms like 30m, 3h, 1d, 2w")
	ErrInvalidUseCase     = errors.New("invalid useCase parameter; expected one of sessions, transactions, custom, spans")
	ErrTagQueryFailed     = errors.New("querying the tag index failed")
	ErrRequestCancelled   = errors.New("request cancelled by client or server timeout")
)

func GetErrorCode(err error) int {
	if err == nil {
		return API_SUCCESS
	}

	var derivedErr *resolver.DerivedMetricError

	switch {
	case errors.Is(err, ErrInvalidParameters):
		return INVALID_PARAMETERS
	case errors.Is(err, ErrInvalidTimeRange):
		return INVALID_TIME_RANGE
	case errors.Is(err, ErrInvalidStatsPeriod):
		return INVALID_STATS_PERIOD
	case errors.Is(err, ErrInvalidUseCase):
		return INVALID_USE_CASE
	case errors.As(err, &derivedErr):
		return DERIVED_METRIC_INVALID
	case errors.Is(err, ErrTagQueryFailed):
		return TAG_QUERY_FAILED
	case errors.Is(err, ErrRequestCancelled):
		return REQUEST_CANCELLED
	default:
		return API_FAILURE // Default for any unhandled error
	}
}
