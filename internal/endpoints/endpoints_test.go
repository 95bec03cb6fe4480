package endpoints

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"metrics-tags-app/internal/domain"
	"metrics-tags-app/internal/naming"
	"metrics-tags-app/internal/resolver"
	"metrics-tags-app/internal/util"
)

type mockTagIndex struct {
	tags map[string][]string
	all  []string
	err  error
}

func (m *mockTagIndex) TagKeysFor(ctx context.Context, metric domain.ResolvedMetric, scope domain.TagScope) (map[string]struct{}, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys := make(map[string]struct{})
	for _, key := range m.tags[metric.MRI.Raw] {
		keys[key] = struct{}{}
	}
	return keys, nil
}

func (m *mockTagIndex) AllTagKeys(ctx context.Context, scope domain.TagScope) (map[string]struct{}, error) {
	if m.err != nil {
		return nil, m.err
	}

	keys := make(map[string]struct{})
	for _, key := range m.all {
		keys[key] = struct{}{}
	}
	return keys, nil
}

func testRegistry() *naming.Registry {
	return naming.New(
		map[string]string{
			"metric1": "c:custom/metric1@none",
			"metric2": "c:custom/metric2@none",
			"metric3": "c:custom/metric3@none",
		},
		[]domain.DerivedMetric{
			{Key: "crash_free_fake", Op: "divide", Operands: []string{"missing_metric", "metric1"}},
		},
	)
}

func testIndex() *mockTagIndex {
	return &mockTagIndex{
		tags: map[string][]string{
			"c:custom/metric1@none": {"tag1", "tag2"},
			"c:custom/metric2@none": {"tag1", "tag2", "tag3"},
			"c:custom/metric3@none": {"tag4"},
		},
		all: []string{"environment", "release", "tag1", "tag2", "tag3", "tag4"},
	}
}

func newTagsHandler(index domain.TagIndex) *Tags {
	tagsHandler := &Tags{}
	tagsHandler.Init(resolver.New(testRegistry(), index), &util.ServiceLogger{})
	return tagsHandler
}

func newTagsRequest(target string) *http.Request {
	req := httptest.NewRequest("GET", target, nil)
	return mux.SetURLVars(req, map[string]string{
		"organization": "acme",
	})
}

func decodeTagKeys(t *testing.T, apiResponse APIResponse) []domain.TagKey {
	var tagKeys []domain.TagKey

	valueBytes, err := json.Marshal(apiResponse.Value)
	assert.NoError(t, err)
	assert.NoError(t, json.Unmarshal(valueBytes, &tagKeys))
	return tagKeys
}

func TestGetMetricsTagsHandler(t *testing.T) {
	tagsHandler := newTagsHandler(testIndex())

	var apiResponse APIResponse

	// case 1: Intersection of two overlapping metrics
	req := newTagsRequest("/organizations/acme/metrics/tags?metric=metric1&metric=metric2")
	rr := httptest.NewRecorder()
	tagsHandler.GetMetricsTagsHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "Expected status OK")
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"), "Expected Content-Type: application/json")

	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiResponse))
	assert.True(t, apiResponse.Status, "Expected API status to be true for success")
	assert.Equal(t, API_SUCCESS, apiResponse.ErrorCode, "Expected API_SUCCESS error code")
	assert.Empty(t, apiResponse.Error, "Expected no error message on success")

	tagKeys := decodeTagKeys(t, apiResponse)
	assert.Equal(t, []domain.TagKey{{Key: "tag1"}, {Key: "tag2"}}, tagKeys)

	// case 2: Disjoint third metric empties the intersection, still 200
	req = newTagsRequest("/organizations/acme/metrics/tags?metric=metric1&metric=metric2&metric=metric3")
	rr = httptest.NewRecorder()
	tagsHandler.GetMetricsTagsHandler(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "An empty intersection is a valid answer")

	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiResponse))
	assert.True(t, apiResponse.Status)
	assert.Empty(t, decodeTagKeys(t, apiResponse))

	// case 3: No metric parameters lists every observed tag key
	req = newTagsRequest("/organizations/acme/metrics/tags")
	rr = httptest.NewRecorder()
	tagsHandler.GetMetricsTagsHandler(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiResponse))
	tagKeys = decodeTagKeys(t, apiResponse)
	assert.Equal(t, []domain.TagKey{
		{Key: "environment"}, {Key: "release"},
		{Key: "tag1"}, {Key: "tag2"}, {Key: "tag3"}, {Key: "tag4"},
	}, tagKeys, "Expected the full alphabetical tag listing")

	// case 4: Unknown plain metric degrades to an empty 200
	req = newTagsRequest("/organizations/acme/metrics/tags?metric=metric1&metric=foo.bar")
	rr = httptest.NewRecorder()
	tagsHandler.GetMetricsTagsHandler(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiResponse))
	assert.True(t, apiResponse.Status)
	assert.Empty(t, decodeTagKeys(t, apiResponse))

	// case 5: Broken derived metric is a 400 naming the metric
	req = newTagsRequest("/organizations/acme/metrics/tags?metric=crash_free_fake")
	rr = httptest.NewRecorder()
	tagsHandler.GetMetricsTagsHandler(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected Bad Request for a broken derived metric")

	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiResponse))
	assert.False(t, apiResponse.Status, "Expected API status to be false for error")
	assert.Equal(t, DERIVED_METRIC_INVALID, apiResponse.ErrorCode, "Expected DERIVED_METRIC_INVALID error code")
	assert.Contains(t, apiResponse.Error, "crash_free_fake", "Error must name the offending metric")
	assert.Contains(t, apiResponse.Error, "cannot be computed from single entities")

	// case 6: Invalid project parameter
	req = newTagsRequest("/organizations/acme/metrics/tags?project=abc")
	rr = httptest.NewRecorder()
	tagsHandler.GetMetricsTagsHandler(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected Bad Request for invalid project parameter")

	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiResponse))
	assert.False(t, apiResponse.Status)
	assert.Equal(t, INVALID_PARAMETERS, apiResponse.ErrorCode)
	assert.Contains(t, apiResponse.Error, ErrInvalidParameters.Error())

	// case 7: Invalid statsPeriod
	req = newTagsRequest("/organizations/acme/metrics/tags?statsPeriod=1x")
	rr = httptest.NewRecorder()
	tagsHandler.GetMetricsTagsHandler(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected Bad Request for invalid statsPeriod")

	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiResponse))
	assert.Equal(t, INVALID_STATS_PERIOD, apiResponse.ErrorCode)
	assert.Contains(t, apiResponse.Error, ErrInvalidStatsPeriod.Error())

	// case 8: Unknown useCase
	req = newTagsRequest("/organizations/acme/metrics/tags?useCase=nonsense")
	rr = httptest.NewRecorder()
	tagsHandler.GetMetricsTagsHandler(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected Bad Request for unknown useCase")

	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiResponse))
	assert.Equal(t, INVALID_USE_CASE, apiResponse.ErrorCode)
	assert.Contains(t, apiResponse.Error, ErrInvalidUseCase.Error())

	// case 9: start > end
	req = newTagsRequest("/organizations/acme/metrics/tags?start=2000&end=1000")
	rr = httptest.NewRecorder()
	tagsHandler.GetMetricsTagsHandler(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected Bad Request for start > end")

	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiResponse))
	assert.Equal(t, INVALID_TIME_RANGE, apiResponse.ErrorCode)
	assert.Contains(t, apiResponse.Error, ErrInvalidTimeRange.Error())

	// case 10: Non-integer start with end supplied
	req = newTagsRequest("/organizations/acme/metrics/tags?start=abc&end=1000")
	rr = httptest.NewRecorder()
	tagsHandler.GetMetricsTagsHandler(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiResponse))
	assert.Equal(t, INVALID_PARAMETERS, apiResponse.ErrorCode)

	// case 11: Backend failure surfaces as 500
	tagsHandlerFailing := newTagsHandler(&mockTagIndex{err: assert.AnError})
	req = newTagsRequest("/organizations/acme/metrics/tags?metric=metric1")
	rr = httptest.NewRecorder()
	tagsHandlerFailing.GetMetricsTagsHandler(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code, "Expected Internal Server Error for a failing tag index")

	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiResponse))
	assert.False(t, apiResponse.Status)
	assert.Equal(t, TAG_QUERY_FAILED, apiResponse.ErrorCode)
	assert.Contains(t, apiResponse.Error, ErrTagQueryFailed.Error())

	// case 12: Context cancellation during resolution
	req = newTagsRequest("/organizations/acme/metrics/tags?metric=metric1")
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	req = req.WithContext(ctx)
	rr = httptest.NewRecorder()
	tagsHandler.GetMetricsTagsHandler(rr, req)
	assert.Equal(t, http.StatusRequestTimeout, rr.Code, "Expected Request Timeout for cancelled context")

	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiResponse))
	assert.False(t, apiResponse.Status)
	assert.Equal(t, REQUEST_CANCELLED, apiResponse.ErrorCode)
	assert.Contains(t, apiResponse.Error, ErrRequestCancelled.Error())

	// case 13: POST request is rejected
	req = httptest.NewRequest("POST", "/organizations/acme/metrics/tags", nil)
	req = mux.SetURLVars(req, map[string]string{"organization": "acme"})
	rr = httptest.NewRecorder()
	tagsHandler.GetMetricsTagsHandler(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, "Expected Method Not Allowed for POST request")

	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiResponse))
	assert.False(t, apiResponse.Status)
	assert.Equal(t, API_FAILURE, apiResponse.ErrorCode)

	// case 14: Explicit window is forwarded to the index
	req = newTagsRequest("/organizations/acme/metrics/tags?metric=metric1&start=1000&end=2000&project=1&project=2&useCase=custom")
	rr = httptest.NewRecorder()
	tagsHandler.GetMetricsTagsHandler(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiResponse))
	assert.True(t, apiResponse.Status)
	assert.Equal(t, []domain.TagKey{{Key: "tag1"}, {Key: "tag2"}}, decodeTagKeys(t, apiResponse))
}

func TestParseStatsPeriod(t *testing.T) {
	for _, tc := range []struct {
		input    string
		expected string
	}{
		{"30m", "30m0s"},
		{"3h", "3h0m0s"},
		{"1d", "24h0m0s"},
		{"2w", "336h0m0s"},
	} {
		period, err := parseStatsPeriod(tc.input)
		assert.NoError(t, err)
		assert.Equal(t, tc.expected, period.String())
	}

	for _, bad := range []string{"", "d", "1", "1y", "-1d", "1dd"} {
		_, err := parseStatsPeriod(bad)
		assert.Error(t, err, "expected %q to be rejected", bad)
	}
}
