package metrics

type noopFactory struct{}

func (d *noopFactory) NewCounter(opts CounterOpts) Counter {
	return noopCounter{}
}

func (d *noopFactory) NewCounterVec(opts CounterOpts, labelNames []string) Vec[Counter] {
	return noopCounter{}
}

func (d *noopFactory) NewGauge(opts GaugeOpts) Gauge {
	return noopGauge{}
}

func (d *noopFactory) NewHistogram(opts HistogramOpts) Histogram {
	return noopHistogram{}
}

func (d *noopFactory) NewHistogramVec(opts HistogramOpts, labelNames []string) Vec[Histogram] {
	return noopHistogram{}
}

type noopCounter struct{}

func (counter noopCounter) Inc()        {}
func (counter noopCounter) Add(float64) {}
func (counter noopCounter) WithLabelValues(lvls ...string) Counter {
	return noopCounter{}
}

type noopGauge struct{}

func (gauge noopGauge) Set(float64) {}
func (gauge noopGauge) Inc()        {}
func (gauge noopGauge) Dec()        {}
func (gauge noopGauge) Add(float64) {}

type noopHistogram struct{}

func (histogram noopHistogram) Observe(float64) {}
func (histogram noopHistogram) WithLabelValues(lvls ...string) Histogram {
	return noopHistogram{}
}
