package stats

// Noop discards all metrics. It is the default collector until one is
// configured.
type Noop struct{}

// Compile-time check that Noop implements Collector.
var _ Collector = Noop{}

// NewNoop creates a new no-op collector.
func NewNoop() Noop { return Noop{} }

func (Noop) IncCounter(name string, delta int64)         {}
func (Noop) SetGauge(name string, value int64)           {}
func (Noop) ObserveHistogram(name string, value float64) {}
