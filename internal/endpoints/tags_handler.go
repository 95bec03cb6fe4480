package endpoints

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"metrics-tags-app/internal/domain"
	"metrics-tags-app/internal/resolver"
	"metrics-tags-app/internal/util"

	"github.com/gorilla/mux"
)

const defaultStatsPeriod = 24 * time.Hour

var knownUseCases = map[string]bool{
	"sessions":     true,
	"transactions": true,
	"custom":       true,
	"spans":        true,
}

var statsPeriodPattern = regexp.MustCompile(`^(\d+)([smhdw])$`)

type Tags struct {
	Response APIResponse
	logger   *util.ServiceLogger
	resolver *resolver.Resolver
}

func (t *Tags) Init(res *resolver.Resolver, webSlogger *util.ServiceLogger) {
	t.resolver = res
	t.logger = webSlogger
}

// GetMetricsTagsHandler serves GET /organizations/{organization}/metrics/tags.
// Query parameters: metric (repeatable), project (repeatable), useCase,
// start/end (unix seconds) or statsPeriod (e.g. 1d, 2w).
func (t *Tags) GetMetricsTagsHandler(w http.ResponseWriter, r *http.Request) {

	if r.Method != http.MethodGet {
		t.logger.LogEvent(util.LOG_LEVEL_ERROR, "Method Not Allowed. Only GET requests are supported", http.StatusMethodNotAllowed)
		t.Response.WriteErrorResponseWithStatusCode(w, errors.New("method Not Allowed. Only GET requests are supported"), http.StatusMethodNotAllowed)
		return
	}

	routeParamValue := mux.Vars(r)
	organization := routeParamValue["organization"]

	queryParams := r.URL.Query()

	useCase := queryParams.Get("useCase")
	if useCase != "" && !knownUseCases[useCase] {
		t.logger.LogEvent(util.LOG_LEVEL_ERROR, "Unknown useCase requested. useCase - ", useCase)
		t.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidUseCase, http.StatusBadRequest)
		return
	}

	var projectIDs []int64
	for _, projectStr := range queryParams["project"] {
		projectID, err := strconv.ParseInt(projectStr, 10, 64)
		if err != nil {
			t.logger.LogEvent(util.LOG_LEVEL_ERROR, "While getting project from URL. Err - ", err)
			t.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidParameters, http.StatusBadRequest)
			return
		}
		projectIDs = append(projectIDs, projectID)
	}

	startTime, endTime, err := resolveTimeWindow(queryParams.Get("start"), queryParams.Get("end"), queryParams.Get("statsPeriod"))
	if err != nil {
		t.logger.LogEvent(util.LOG_LEVEL_ERROR, "While resolving the time window. Err - ", err)
		t.Response.WriteErrorResponseWithStatusCode(w, err, http.StatusBadRequest)
		return
	}

	query := resolver.TagsQuery{
		Metrics: queryParams["metric"],
		Scope: domain.TagScope{
			Organization: organization,
			UseCase:      useCase,
			Start:        startTime,
			End:          endTime,
			ProjectIDs:   projectIDs,
		},
	}

	tagKeys, err := t.resolver.ComputeSharedTagKeys(r.Context(), query)
	if err != nil {
		var derivedErr *resolver.DerivedMetricError
		switch {
		case errors.As(err, &derivedErr):
			t.logger.LogEvent(util.LOG_LEVEL_ERROR, "Derived metric setup is invalid. Err - ", err)
			t.Response.WriteErrorResponseWithStatusCode(w, err, http.StatusBadRequest)
		case errors.Is(err, context.Canceled):
			t.logger.LogEvent(util.LOG_LEVEL_WARN, "Context cancelled")
			t.Response.WriteErrorResponseWithStatusCode(w, ErrRequestCancelled, http.StatusRequestTimeout)
		default:
			t.logger.LogEvent(util.LOG_LEVEL_ERROR, "Occured while ComputeSharedTagKeys(). Err - ", err)
			t.Response.WriteErrorResponseWithStatusCode(w, ErrTagQueryFailed, http.StatusInternalServerError)
		}
		return
	}

	// An empty intersection is a valid answer, not a missing resource.
	t.Response.WriteResultResponse(w, tagKeys)
}

// resolveTimeWindow picks the query window: explicit start/end when both
// are given, otherwise statsPeriod back from now, otherwise the default
// period.
func resolveTimeWindow(startStr, endStr, statsPeriod string) (int64, int64, error) {
	if startStr != "" || endStr != "" {
		startTime, err := strconv.ParseInt(startStr, 10, 64)
		if err != nil {
			return 0, 0, ErrInvalidParameters
		}
		endTime, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return 0, 0, ErrInvalidParameters
		}
		if startTime > endTime {
			return 0, 0, ErrInvalidTimeRange
		}
		return startTime, endTime, nil
	}

	period := defaultStatsPeriod
	if statsPeriod != "" {
		parsed, err := parseStatsPeriod(statsPeriod)
		if err != nil {
			return 0, 0, ErrInvalidStatsPeriod
		}
		period = parsed
	}

	now := time.Now()
	return now.Add(-period).Unix(), now.Unix(), nil
}

func parseStatsPeriod(s string) (time.Duration, error) {
	matches := statsPeriodPattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, ErrInvalidStatsPeriod
	}

	count, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, ErrInvalidStatsPeriod
	}

	var unit time.Duration
	switch matches[2] {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	case "w":
		unit = 7 * 24 * time.Hour
	}

	return time.Duration(count) * unit, nil
}
