package metrics

type Factory interface {
	NewCounter(opts CounterOpts) Counter
	NewCounterVec(opts CounterOpts, labelNames []string) Vec[Counter]
	NewGauge(opts GaugeOpts) Gauge
	NewHistogram(opts HistogramOpts) Histogram
	NewHistogramVec(opts HistogramOpts, labelNames []string) Vec[Histogram]
}

type Histogram interface {
	Observe(float64)
}

type Gauge interface {
	Set(float64)
	Inc()
	Dec()
	Add(float64)
}

type Vec[T any] interface {
	WithLabelValues(lvs ...string) T
}

type Counter interface {
	Inc()
	Add(float64)
}

type Opts struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
}

type (
	CounterOpts Opts
	GaugeOpts   Opts
)

type HistogramOpts struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string

	Buckets []float64
}

var enabled bool

func Enable() {
	enabled = true
}

func Enabled() bool {
	return enabled
}

// VoidFactory returns metrics factory without any collection.
func VoidFactory() Factory {
	return &noopFactory{}
}
