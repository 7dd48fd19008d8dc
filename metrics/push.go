package metrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/prometheus/prompb"
)

const (
	// DefaultTimeout is the default timeout for remote write requests.
	DefaultTimeout = 30 * time.Second
)

// PushConfig configures a PushRegistry.
type PushConfig struct {
	// URL is the base URL of the remote write endpoint (e.g., "http://localhost:8428").
	URL string
	// Job is the job label for all metrics.
	Job string
	// Instance is the instance label for all metrics.
	Instance string
	// Timeout bounds each push. Defaults to DefaultTimeout.
	Timeout time.Duration
	// OnError is called when a push fails. Pushes never fail the caller.
	OnError func(error)
}

// PushRegistry implements Registry for push-based metrics collection.
// Every Set or Inc results in one remote write request.
type PushRegistry struct {
	pusher *pusher
}

// NewPushRegistry creates a PushRegistry for the given remote write endpoint.
func NewPushRegistry(cfg PushConfig) *PushRegistry {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	onError := cfg.OnError
	if onError == nil {
		onError = func(error) {}
	}

	return &PushRegistry{pusher: &pusher{
		url:        strings.TrimSuffix(cfg.URL, "/") + "/api/v1/write",
		httpClient: &http.Client{Timeout: timeout},
		job:        cfg.Job,
		instance:   cfg.Instance,
		onError:    onError,
	}}
}

// NewGauge creates a push-based Gauge.
func (r *PushRegistry) NewGauge(opts prometheus.GaugeOpts) (Gauge, error) {
	return &pushGauge{
		pusher: r.pusher,
		name:   prometheus.BuildFQName(opts.Namespace, opts.Subsystem, opts.Name),
	}, nil
}

// NewCounterVec creates a push-based CounterVec.
func (r *PushRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error) {
	return &pushCounterVec{
		pusher:   r.pusher,
		name:     prometheus.BuildFQName(opts.Namespace, opts.Subsystem, opts.Name),
		labels:   labels,
		counters: make(map[string]*pushCounter),
	}, nil
}

// pusher performs remote writes.
type pusher struct {
	url        string
	httpClient *http.Client
	job        string
	instance   string
	onError    func(error)
}

func (p *pusher) pushAndReport(name string, value float64, labels map[string]string) {
	if err := p.push(context.Background(), name, value, labels); err != nil {
		p.onError(fmt.Errorf("pushing %s: %w", name, err))
	}
}

// push sends a single sample to the remote write endpoint.
func (p *pusher) push(ctx context.Context, name string, value float64, labels map[string]string) error {
	req := &prompb.WriteRequest{
		Timeseries: []prompb.TimeSeries{p.timeSeries(name, value, labels)},
	}

	data, err := proto.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling write request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(snappy.Encode(nil, data)))
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// timeSeries builds the series with __name__, job, instance and the sorted custom labels.
func (p *pusher) timeSeries(name string, value float64, labels map[string]string) prompb.TimeSeries {
	promLabels := make([]prompb.Label, 0, len(labels)+3)
	promLabels = append(promLabels, prompb.Label{Name: "__name__", Value: name})
	if p.job != "" {
		promLabels = append(promLabels, prompb.Label{Name: "job", Value: p.job})
	}
	if p.instance != "" {
		promLabels = append(promLabels, prompb.Label{Name: "instance", Value: p.instance})
	}
	for _, k := range slices.Sorted(maps.Keys(labels)) {
		promLabels = append(promLabels, prompb.Label{Name: k, Value: labels[k]})
	}

	return prompb.TimeSeries{
		Labels: promLabels,
		Samples: []prompb.Sample{{
			Value:     value,
			Timestamp: time.Now().UnixMilli(),
		}},
	}
}

type pushGauge struct {
	pusher *pusher
	name   string
}

func (g *pushGauge) Set(v float64) {
	g.pusher.pushAndReport(g.name, v, nil)
}

type pushCounter struct {
	mu     sync.Mutex
	pusher *pusher
	name   string
	labels map[string]string
	value  float64
}

func (c *pushCounter) Inc() {
	c.mu.Lock()
	c.value++
	value := c.value
	c.mu.Unlock()
	c.pusher.pushAndReport(c.name, value, c.labels)
}

type pushCounterVec struct {
	mu       sync.Mutex
	pusher   *pusher
	name     string
	labels   []string
	counters map[string]*pushCounter
}

func (c *pushCounterVec) With(labels prometheus.Labels) Counter {
	key := labelKey(c.labels, labels)

	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, ok := c.counters[key]; ok {
		return counter
	}
	counter := &pushCounter{
		pusher: c.pusher,
		name:   c.name,
		labels: maps.Clone(labels),
	}
	c.counters[key] = counter
	return counter
}

// labelKey joins label values in declared order, so equal label sets share a counter.
func labelKey(names []string, labels prometheus.Labels) string {
	var sb strings.Builder
	for _, n := range names {
		sb.WriteString(n)
		sb.WriteByte('=')
		sb.WriteString(labels[n])
		sb.WriteByte(0)
	}
	return sb.String()
}
