package observability

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	defaultDurationBuckets  = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	confidenceScoreBuckets  = []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	verificationTimeBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
)

type histogram struct {
	buckets []float64
	counts  []uint64
	count   uint64
	sum     float64
}

func newHistogram(buckets []float64) *histogram {
	copyBuckets := make([]float64, len(buckets))
	copy(copyBuckets, buckets)
	return &histogram{
		buckets: copyBuckets,
		counts:  make([]uint64, len(copyBuckets)),
	}
}

func (h *histogram) observe(value float64) {
	if h == nil {
		return
	}
	if value < 0 {
		value = 0
	}
	for idx, bucket := range h.buckets {
		if value <= bucket {
			h.counts[idx]++
			break
		}
	}
	h.count++
	h.sum += value
}

type apiRequestKey struct {
	route  string
	method string
	status string
}

type apiDurationKey struct {
	route  string
	method string
}

type rateLimitKey struct {
	scope    string
	endpoint string
}

type validationKey struct {
	source string
	result string
}

type APIMetrics struct {
	mu                   sync.RWMutex
	httpRequests         map[apiRequestKey]uint64
	httpDurations        map[apiDurationKey]*histogram
	dbQuery              *histogram
	rateLimited          map[rateLimitKey]uint64
	nameValidations      map[validationKey]uint64
	nameConfidence       *histogram
	confessionsSubmitted map[string]uint64
}

func NewAPIMetrics() *APIMetrics {
	return &APIMetrics{
		httpRequests:         map[apiRequestKey]uint64{},
		httpDurations:        map[apiDurationKey]*histogram{},
		dbQuery:              newHistogram(defaultDurationBuckets),
		rateLimited:          map[rateLimitKey]uint64{},
		nameValidations:      map[validationKey]uint64{},
		nameConfidence:       newHistogram(confidenceScoreBuckets),
		confessionsSubmitted: map[string]uint64{},
	}
}

func (m *APIMetrics) ObserveHTTPRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := apiRequestKey{
		route:  normalizeMetricValue(route, "unknown"),
		method: normalizeMetricValue(strings.ToUpper(strings.TrimSpace(method)), "UNKNOWN"),
		status: normalizeMetricValue(strconv.Itoa(status), "0"),
	}
	durationKey := apiDurationKey{route: key.route, method: key.method}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.httpRequests[key]++
	h, exists := m.httpDurations[durationKey]
	if !exists {
		h = newHistogram(defaultDurationBuckets)
		m.httpDurations[durationKey] = h
	}
	h.observe(duration.Seconds())
}

func (m *APIMetrics) ObserveDBQuery(duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dbQuery.observe(duration.Seconds())
}

func (m *APIMetrics) IncRateLimited(scope, endpoint string) {
	if m == nil {
		return
	}
	key := rateLimitKey{
		scope:    normalizeMetricValue(scope, "unknown"),
		endpoint: normalizeMetricValue(endpoint, "unknown"),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimited[key]++
}

// ObserveNameValidation records one validator verdict. source names the caller
// (signup, confession, dry_run).
func (m *APIMetrics) ObserveNameValidation(source string, valid bool, confidence int) {
	if m == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	key := validationKey{source: normalizeMetricValue(source, "unknown"), result: result}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nameValidations[key]++
	m.nameConfidence.observe(float64(confidence))
}

func (m *APIMetrics) IncConfessionSubmitted(flagged bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confessionsSubmitted[strconv.FormatBool(flagged)]++
}

func (m *APIMetrics) Render() string {
	if m == nil {
		return ""
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var sb strings.Builder

	sb.WriteString("# HELP http_requests_total Total HTTP requests handled by API.\n")
	sb.WriteString("# TYPE http_requests_total counter\n")
	httpRequestKeys := make([]apiRequestKey, 0, len(m.httpRequests))
	for key := range m.httpRequests {
		httpRequestKeys = append(httpRequestKeys, key)
	}
	sort.Slice(httpRequestKeys, func(i, j int) bool {
		if httpRequestKeys[i].route != httpRequestKeys[j].route {
			return httpRequestKeys[i].route < httpRequestKeys[j].route
		}
		if httpRequestKeys[i].method != httpRequestKeys[j].method {
			return httpRequestKeys[i].method < httpRequestKeys[j].method
		}
		return httpRequestKeys[i].status < httpRequestKeys[j].status
	})
	for _, key := range httpRequestKeys {
		renderCounter(&sb, "http_requests_total", map[string]string{
			"route":  key.route,
			"method": key.method,
			"status": key.status,
		}, m.httpRequests[key])
	}

	sb.WriteString("# HELP http_request_duration_seconds HTTP request latency in seconds.\n")
	sb.WriteString("# TYPE http_request_duration_seconds histogram\n")
	httpDurationKeys := make([]apiDurationKey, 0, len(m.httpDurations))
	for key := range m.httpDurations {
		httpDurationKeys = append(httpDurationKeys, key)
	}
	sort.Slice(httpDurationKeys, func(i, j int) bool {
		if httpDurationKeys[i].route != httpDurationKeys[j].route {
			return httpDurationKeys[i].route < httpDurationKeys[j].route
		}
		return httpDurationKeys[i].method < httpDurationKeys[j].method
	})
	for _, key := range httpDurationKeys {
		labels := map[string]string{
			"route":  key.route,
			"method": key.method,
		}
		renderHistogramSeries(&sb, "http_request_duration_seconds", labels, m.httpDurations[key])
	}

	sb.WriteString("# HELP db_query_duration_seconds Database query duration in seconds.\n")
	sb.WriteString("# TYPE db_query_duration_seconds histogram\n")
	renderHistogramSeries(&sb, "db_query_duration_seconds", map[string]string{}, m.dbQuery)

	sb.WriteString("# HELP rate_limit_events_total Rate-limit rejections by scope and endpoint.\n")
	sb.WriteString("# TYPE rate_limit_events_total counter\n")
	limitedKeys := make([]rateLimitKey, 0, len(m.rateLimited))
	for key := range m.rateLimited {
		limitedKeys = append(limitedKeys, key)
	}
	sort.Slice(limitedKeys, func(i, j int) bool {
		if limitedKeys[i].scope != limitedKeys[j].scope {
			return limitedKeys[i].scope < limitedKeys[j].scope
		}
		return limitedKeys[i].endpoint < limitedKeys[j].endpoint
	})
	for _, key := range limitedKeys {
		renderCounter(&sb, "rate_limit_events_total", map[string]string{
			"scope":    key.scope,
			"endpoint": key.endpoint,
		}, m.rateLimited[key])
	}

	sb.WriteString("# HELP name_validations_total Name validator verdicts by caller and result.\n")
	sb.WriteString("# TYPE name_validations_total counter\n")
	validationKeys := make([]validationKey, 0, len(m.nameValidations))
	for key := range m.nameValidations {
		validationKeys = append(validationKeys, key)
	}
	sort.Slice(validationKeys, func(i, j int) bool {
		if validationKeys[i].source != validationKeys[j].source {
			return validationKeys[i].source < validationKeys[j].source
		}
		return validationKeys[i].result < validationKeys[j].result
	})
	for _, key := range validationKeys {
		renderCounter(&sb, "name_validations_total", map[string]string{
			"source": key.source,
			"result": key.result,
		}, m.nameValidations[key])
	}

	sb.WriteString("# HELP name_validation_confidence Name validator confidence scores.\n")
	sb.WriteString("# TYPE name_validation_confidence histogram\n")
	renderHistogramSeries(&sb, "name_validation_confidence", map[string]string{}, m.nameConfidence)

	sb.WriteString("# HELP confessions_submitted_total Accepted confessions by review flag.\n")
	sb.WriteString("# TYPE confessions_submitted_total counter\n")
	flags := make([]string, 0, len(m.confessionsSubmitted))
	for flag := range m.confessionsSubmitted {
		flags = append(flags, flag)
	}
	sort.Strings(flags)
	for _, flag := range flags {
		renderCounter(&sb, "confessions_submitted_total", map[string]string{"flagged": flag}, m.confessionsSubmitted[flag])
	}

	return sb.String()
}

type WorkerMetrics struct {
	mu                     sync.RWMutex
	verificationsProcessed map[string]uint64
	verificationDurations  *histogram
	providerFailures       uint64
	dbQuery                *histogram
}

func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		verificationsProcessed: map[string]uint64{},
		verificationDurations:  newHistogram(verificationTimeBuckets),
		dbQuery:                newHistogram(defaultDurationBuckets),
	}
}

// ObserveVerification records one processed confession. providerFailed is true when the
// external check failed and the fail-open fallback verdict was used.
func (m *WorkerMetrics) ObserveVerification(status string, providerFailed bool, duration time.Duration) {
	if m == nil {
		return
	}
	cleanStatus := normalizeMetricValue(status, "unknown")

	m.mu.Lock()
	defer m.mu.Unlock()
	m.verificationsProcessed[cleanStatus]++
	m.verificationDurations.observe(duration.Seconds())
	if providerFailed {
		m.providerFailures++
	}
}

func (m *WorkerMetrics) ObserveDBQuery(duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dbQuery.observe(duration.Seconds())
}

func (m *WorkerMetrics) Render() string {
	if m == nil {
		return ""
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var sb strings.Builder

	sb.WriteString("# HELP verifications_processed_total Confessions processed by the verification worker.\n")
	sb.WriteString("# TYPE verifications_processed_total counter\n")
	statuses := make([]string, 0, len(m.verificationsProcessed))
	for status := range m.verificationsProcessed {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		renderCounter(&sb, "verifications_processed_total", map[string]string{"status": status}, m.verificationsProcessed[status])
	}

	sb.WriteString("# HELP verification_duration_seconds External verification latency in seconds.\n")
	sb.WriteString("# TYPE verification_duration_seconds histogram\n")
	renderHistogramSeries(&sb, "verification_duration_seconds", map[string]string{}, m.verificationDurations)

	sb.WriteString("# HELP verification_provider_failures_total Verifications that fell back to the lenient verdict.\n")
	sb.WriteString("# TYPE verification_provider_failures_total counter\n")
	renderCounter(&sb, "verification_provider_failures_total", map[string]string{}, m.providerFailures)

	sb.WriteString("# HELP db_query_duration_seconds Database query duration in seconds.\n")
	sb.WriteString("# TYPE db_query_duration_seconds histogram\n")
	renderHistogramSeries(&sb, "db_query_duration_seconds", map[string]string{}, m.dbQuery)

	return sb.String()
}

func renderCounter(sb *strings.Builder, metricName string, labels map[string]string, value uint64) {
	sb.WriteString(metricName)
	sb.WriteString(formatLabels(labels))
	sb.WriteString(" ")
	sb.WriteString(strconv.FormatUint(value, 10))
	sb.WriteString("\n")
}

func renderHistogramSeries(sb *strings.Builder, metricName string, labels map[string]string, h *histogram) {
	if sb == nil || h == nil {
		return
	}

	cumulative := uint64(0)
	for idx, bucket := range h.buckets {
		cumulative += h.counts[idx]
		withLE := cloneLabels(labels)
		withLE["le"] = strconv.FormatFloat(bucket, 'g', -1, 64)
		sb.WriteString(metricName)
		sb.WriteString("_bucket")
		sb.WriteString(formatLabels(withLE))
		sb.WriteString(" ")
		sb.WriteString(strconv.FormatUint(cumulative, 10))
		sb.WriteString("\n")
	}

	withInf := cloneLabels(labels)
	withInf["le"] = "+Inf"
	sb.WriteString(metricName)
	sb.WriteString("_bucket")
	sb.WriteString(formatLabels(withInf))
	sb.WriteString(" ")
	sb.WriteString(strconv.FormatUint(h.count, 10))
	sb.WriteString("\n")

	sb.WriteString(metricName)
	sb.WriteString("_sum")
	sb.WriteString(formatLabels(labels))
	sb.WriteString(" ")
	sb.WriteString(strconv.FormatFloat(h.sum, 'g', -1, 64))
	sb.WriteString("\n")

	sb.WriteString(metricName)
	sb.WriteString("_count")
	sb.WriteString(formatLabels(labels))
	sb.WriteString(" ")
	sb.WriteString(strconv.FormatUint(h.count, 10))
	sb.WriteString("\n")
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+`="`+escapeLabelValue(labels[key])+`"`)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func cloneLabels(labels map[string]string) map[string]string {
	out := make(map[string]string, len(labels))
	for key, value := range labels {
		out[key] = value
	}
	return out
}

func escapeLabelValue(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "\n", `\n`, `"`, `\"`)
	return replacer.Replace(value)
}

func normalizeMetricValue(value, fallback string) string {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return fallback
	}
	return clean
}
