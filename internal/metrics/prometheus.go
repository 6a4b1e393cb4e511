// Package metrics exports check, workflow and request metrics to Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/example/shopcheck/internal/check"
	"github.com/example/shopcheck/internal/transport"
	"github.com/example/shopcheck/internal/workflow"
)

// Prometheus metric names.
const (
	MetricChecksTotal         = "shopcheck_checks_total"
	MetricWorkflowsTotal      = "shopcheck_workflows_total"
	MetricStepDurationSeconds = "shopcheck_step_duration_seconds"
	MetricRequestsTotal       = "shopcheck_requests_total"
)

// Label values.
const (
	ResultPassed     = "passed"
	ResultFailed     = "failed"
	OutcomeCompleted = "completed"
	OutcomeAborted   = "aborted"
)

// Config holds configuration for the exporter.
type Config struct {
	// Listen is the address of the metrics endpoint, e.g. ":9090". Empty
	// disables the endpoint; metrics are still collected.
	Listen string

	// Path is the URL path for the metrics endpoint.
	// Default: /metrics
	Path string

	// HistogramBuckets are the buckets for step duration.
	// Default: prometheus.DefBuckets
	HistogramBuckets []float64
}

// Exporter collects shopcheck metrics in its own registry.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Exporter struct {
	mu sync.RWMutex

	config   Config
	registry *prometheus.Registry

	checksTotal    *prometheus.CounterVec
	workflowsTotal *prometheus.CounterVec
	stepDuration   *prometheus.HistogramVec
	requestsTotal  *prometheus.CounterVec

	server    *http.Server
	ln        net.Listener
	running   bool
	lastError error
}

// Totals are the check and workflow counters summed over all labels.
type Totals struct {
	ChecksPassed       int
	ChecksFailed       int
	WorkflowsCompleted int
	WorkflowsAborted   int
	Requests           int
}

// New creates an exporter with a fresh registry.
func New(config Config) *Exporter {
	if config.Path == "" {
		config.Path = "/metrics"
	}
	if len(config.HistogramBuckets) == 0 {
		config.HistogramBuckets = prometheus.DefBuckets
	}

	e := &Exporter{config: config, registry: prometheus.NewRegistry()}

	e.checksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricChecksTotal,
		Help: "Checks recorded, by scenario and result.",
	}, []string{"scenario", "result"})

	e.workflowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricWorkflowsTotal,
		Help: "Workflow runs, by workflow and outcome.",
	}, []string{"workflow", "outcome"})

	e.stepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricStepDurationSeconds,
		Help:    "Duration of backend operations in seconds.",
		Buckets: config.HistogramBuckets,
	}, []string{"protocol", "service", "operation"})

	e.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricRequestsTotal,
		Help: "HTTP exchanges with the backend, by protocol, operation and status.",
	}, []string{"protocol", "operation", "status"})

	e.registry.MustRegister(e.checksTotal, e.workflowsTotal, e.stepDuration, e.requestsTotal)
	return e
}

// ObserveCheck counts one recorded check. It matches check.Recorder.OnResult.
func (e *Exporter) ObserveCheck(r check.Result) {
	result := ResultPassed
	if !r.Outcome.Passed {
		result = ResultFailed
	}
	e.checksTotal.WithLabelValues(r.Scenario, result).Inc()
}

// ObserveWorkflow counts one workflow run. It matches Hooks.OnWorkflowComplete.
func (e *Exporter) ObserveWorkflow(res workflow.Result) {
	outcome := OutcomeCompleted
	if res.Err != nil {
		outcome = OutcomeAborted
	}
	e.workflowsTotal.WithLabelValues(res.Workflow, outcome).Inc()
}

// ObserveExchange records one backend request. It matches transport.Config.Observe.
func (e *Exporter) ObserveExchange(ex transport.Exchange) {
	service, operation := splitOperation(ex.Operation)
	e.stepDuration.WithLabelValues(string(ex.Protocol), service, operation).Observe(ex.Duration.Seconds())

	status := strconv.Itoa(ex.Status)
	if ex.Err != nil && ex.Status == 0 {
		status = "error"
	}
	e.requestsTotal.WithLabelValues(string(ex.Protocol), ex.Operation, status).Inc()
}

// splitOperation turns "cart.add" into ("cart", "add").
func splitOperation(name string) (string, string) {
	service, op, ok := strings.Cut(name, ".")
	if !ok {
		return "", name
	}
	return service, op
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Start serves the metrics endpoint. It is a no-op when Listen is empty or
// the server is already running.
func (e *Exporter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running || e.config.Listen == "" {
		return nil
	}

	ln, err := net.Listen("tcp", e.config.Listen)
	if err != nil {
		return fmt.Errorf("starting metrics endpoint: %w", err)
	}
	e.ln = ln

	mux := http.NewServeMux()
	mux.Handle(e.config.Path, e.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	e.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.mu.Lock()
			e.lastError = err
			e.mu.Unlock()
		}
	}()

	e.running = true
	return nil
}

// Stop shuts the metrics endpoint down.
func (e *Exporter) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil
	}
	e.running = false
	return e.server.Shutdown(ctx)
}

// Address returns the URL of the metrics endpoint, or "" when not running.
func (e *Exporter) Address() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.ln == nil || !e.running {
		return ""
	}
	return "http://" + e.ln.Addr().String() + e.config.Path
}

// IsRunning returns whether the endpoint is being served.
func (e *Exporter) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// LastError returns the last error from the HTTP server, if any.
func (e *Exporter) LastError() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastError
}

// Registry returns the Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Totals reads the counters back from the registry.
func (e *Exporter) Totals() (Totals, error) {
	families, err := e.registry.Gather()
	if err != nil {
		return Totals{}, fmt.Errorf("gathering metrics: %w", err)
	}

	var t Totals
	for _, mf := range families {
		switch mf.GetName() {
		case MetricChecksTotal:
			t.ChecksPassed = sumWhere(mf, "result", ResultPassed)
			t.ChecksFailed = sumWhere(mf, "result", ResultFailed)
		case MetricWorkflowsTotal:
			t.WorkflowsCompleted = sumWhere(mf, "outcome", OutcomeCompleted)
			t.WorkflowsAborted = sumWhere(mf, "outcome", OutcomeAborted)
		case MetricRequestsTotal:
			t.Requests = sumWhere(mf, "", "")
		}
	}
	return t, nil
}

// sumWhere adds the counters whose label equals value. An empty label sums all.
func sumWhere(mf *dto.MetricFamily, label, value string) int {
	var total float64
	for _, m := range mf.GetMetric() {
		if label == "" || labelValue(m, label) == value {
			total += m.GetCounter().GetValue()
		}
	}
	return int(total)
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
