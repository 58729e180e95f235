package engine

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udi-speedb/log-parser/internal/model"
)

// LoadCounterKinds reads a per-counter-name kind declaration file:
//
//	rocksdb.some.interval.counter: delta
//	rocksdb.block.cache.miss: cumulative
//
// RocksDB-family statistics dumps report totals-to-date, so the built-in
// default for every undeclared counter is cumulative-replace; the file
// exists for deployments whose plugins emit interval-style counters.
func LoadCounterKinds(path string) (map[string]model.CounterKind, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("counter kinds file: %w", err)
	}

	var declared map[string]string
	if err := yaml.Unmarshal(raw, &declared); err != nil {
		return nil, fmt.Errorf("counter kinds file %s: %w", path, err)
	}

	kinds := make(map[string]model.CounterKind, len(declared))
	for name, kind := range declared {
		switch kind {
		case "delta":
			kinds[name] = model.CounterDelta
		case "cumulative":
			kinds[name] = model.CounterCumulative
		default:
			return nil, fmt.Errorf("counter kinds file %s: counter %q has unknown kind %q", path, name, kind)
		}
	}
	return kinds, nil
}

func (e *Engine) counterKind(name string) model.CounterKind {
	if kind, ok := e.opts.CounterKinds[name]; ok {
		return kind
	}
	return model.CounterCumulative
}

func (e *Engine) applyCounter(t time.Time, dump model.CounterDump) {
	c, ok := e.counters[dump.Name]
	if !ok {
		c = &model.Counter{Name: dump.Name, Kind: e.counterKind(dump.Name)}
		e.counters[dump.Name] = c
		e.counterOrder = append(e.counterOrder, dump.Name)
	}

	switch c.Kind {
	case model.CounterDelta:
		c.Value += dump.Value
	default:
		// Cumulative totals never go down within one file; a decrease
		// means a corrupt or spliced dump and the entry is dropped.
		if len(c.Entries) > 0 && dump.Value < c.Value {
			e.NoteIssue("counter %s decreased (%d after %d), entry ignored",
				dump.Name, dump.Value, c.Value)
			return
		}
		c.Value = dump.Value
	}

	c.Entries = append(c.Entries, model.CounterEntry{Time: t, Value: dump.Value})
}

func (e *Engine) applyHistogram(t time.Time, dump model.HistogramDump) {
	h, ok := e.histograms[dump.Name]
	if !ok {
		h = &model.Histogram{Name: dump.Name}
		e.histograms[dump.Name] = h
		e.histogramOrder = append(e.histogramOrder, dump.Name)
	}

	if h.NumDumps > 0 && (dump.Count < h.Count || dump.Sum < h.Sum) {
		e.NoteIssue("histogram %s count/sum decreased, dump ignored", dump.Name)
		return
	}

	h.IntervalCount = dump.Count - h.Count
	h.IntervalSum = dump.Sum - h.Sum

	h.P50 = dump.P50
	h.P95 = dump.P95
	h.P99 = dump.P99
	h.P100 = dump.P100
	h.Count = dump.Count
	h.Sum = dump.Sum
	h.Average = 0
	if dump.Count > 0 && dump.Sum > 0 {
		h.Average = math.Round(float64(dump.Sum)/float64(dump.Count)*100) / 100
	}
	h.NumDumps++
	h.LastTime = t
}
