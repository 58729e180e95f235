package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/udi-speedb/log-parser/internal/model"
)

// ErrEngineClosed reports an Ingest or Finalize call on an already
// finalized engine. This is caller misuse, not an input problem.
var ErrEngineClosed = errors.New("aggregation engine is finalized")

// DefaultUnrecognizedCap bounds verbatim retention of unparsed entries.
const DefaultUnrecognizedCap = 100

// Options configures one engine instance.
type Options struct {
	// FilePath is recorded on the snapshot metadata.
	FilePath string

	// UnrecognizedCap overrides DefaultUnrecognizedCap when positive.
	UnrecognizedCap int

	// CounterKinds declares delta-accumulating counters by name.
	// Undeclared counters are cumulative-replace.
	CounterKinds map[string]model.CounterKind
}

// Engine folds the ordered event stream into the statistics model.
// One instance serves exactly one parse: Open until Finalize, then closed.
// It is not safe for concurrent use; parsing is single-threaded by design.
type Engine struct {
	opts   Options
	closed bool

	meta   model.FileMetadata
	dbWide model.DBWideStats

	counters     map[string]*model.Counter
	counterOrder []string

	histograms     map[string]*model.Histogram
	histogramOrder []string

	cfs   map[string]*model.ColumnFamilyStats
	cfIDs map[int]string // numeric CF id to name, from lifecycle lines

	// optionsCF scopes subsequent option lines; db-wide before the first
	// per-CF options banner.
	optionsCF string
	dbOptions []model.OptionKV

	compactions map[compactionKey]*model.CompactionRecord

	warnings []model.WarningRecord

	categoryCounts map[model.EventKind]int

	unrecognized          []string
	unrecognizedCount     int
	unrecognizedLineCount int

	issues []string

	flushStartsSeen map[string]map[int]bool

	lastTime     time.Time
	totalEntries int
	totalLines   int
}

// New creates an open engine.
func New(opts Options) *Engine {
	if opts.UnrecognizedCap <= 0 {
		opts.UnrecognizedCap = DefaultUnrecognizedCap
	}
	return &Engine{
		opts:            opts,
		counters:        make(map[string]*model.Counter),
		histograms:      make(map[string]*model.Histogram),
		cfs:             make(map[string]*model.ColumnFamilyStats),
		cfIDs:           make(map[int]string),
		compactions:     make(map[compactionKey]*model.CompactionRecord),
		categoryCounts:  make(map[model.EventKind]int),
		flushStartsSeen: make(map[string]map[int]bool),
	}
}

// NoteIssue records a non-fatal parse anomaly on the eventual snapshot.
func (e *Engine) NoteIssue(format string, args ...interface{}) {
	e.issues = append(e.issues, fmt.Sprintf(format, args...))
}

// Ingest folds one event into the model. It fails only when the engine is
// already finalized; malformed input never reaches this layer.
func (e *Engine) Ingest(ev model.Event) error {
	if e.closed {
		return ErrEngineClosed
	}

	e.totalEntries++
	e.totalLines += ev.Lines

	e.trackTime(ev)

	if ev.Kind != model.KindUnrecognized {
		e.categoryCounts[ev.Kind] += ev.Lines
	}
	// Warning CF prefixes are candidates until matched against a known
	// CF, so they never create one (applyWarning decides).
	if ev.CF != "" && ev.Kind != model.KindWarning && ev.Kind != model.KindError {
		e.cf(ev.CF)
	}

	switch ev.Kind {
	case model.KindFlush:
		e.applyFlush(ev)
	case model.KindCompactionStart:
		e.applyCompactionStart(ev)
	case model.KindCompactionFinish:
		e.applyCompactionFinish(ev)
	case model.KindStall:
		e.applyStall(ev)
	case model.KindStatsDump:
		e.applyStatsDump(ev)
	case model.KindHistogramDump:
		e.applyHistogramDump(ev)
	case model.KindWarning, model.KindError:
		e.applyWarning(ev)
	case model.KindOptionsHeader:
		e.applyHeader(ev)
	case model.KindOtherEvent:
		// Recognized but not aggregated; accounted above.
	case model.KindUnrecognized:
		e.applyUnrecognized(ev)
	}

	return nil
}

// Finalize freezes the model into an immutable snapshot and closes the
// engine. Further Ingest or Finalize calls fail with ErrEngineClosed.
func (e *Engine) Finalize() (*model.Snapshot, error) {
	if e.closed {
		return nil, ErrEngineClosed
	}
	e.closed = true

	snap := &model.Snapshot{
		Metadata:            e.meta,
		DBWide:              e.dbWide,
		DBOptions:           e.dbOptions,
		Warnings:            e.warnings,
		UnrecognizedCount:   e.unrecognizedLineCount,
		UnrecognizedEntries: e.unrecognizedCount,
		UnrecognizedSample:  e.unrecognized,
		ParseIssues:         e.issues,
		TotalEntries:        e.totalEntries,
		TotalLines:          e.totalLines,
	}
	snap.Metadata.Path = e.opts.FilePath
	snap.Metadata.EndTime = e.lastTime

	if over := e.unrecognizedCount - len(e.unrecognized); over > 0 {
		snap.UnrecognizedOverflow = over
	}

	// Counters and histograms keep first-appearance order.
	for _, name := range e.counterOrder {
		snap.Counters = append(snap.Counters, *e.counters[name])
	}
	for _, name := range e.histogramOrder {
		snap.Histograms = append(snap.Histograms, *e.histograms[name])
	}

	// Column families sorted by name.
	cfNames := make([]string, 0, len(e.cfs))
	for name := range e.cfs {
		cfNames = append(cfNames, name)
	}
	sort.Strings(cfNames)
	for _, name := range cfNames {
		cf := e.cfs[name]
		for key, rec := range e.compactions {
			if key.cf == name && rec.State == model.CompactionPending {
				cf.CompactionsPending++
			}
		}
		snap.ColumnFamilies = append(snap.ColumnFamilies, *cf)
	}

	// Compaction records sorted by (CF, JobID).
	keys := make([]compactionKey, 0, len(e.compactions))
	for key := range e.compactions {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].cf != keys[j].cf {
			return keys[i].cf < keys[j].cf
		}
		return keys[i].jobID < keys[j].jobID
	})
	for _, key := range keys {
		snap.Compactions = append(snap.Compactions, *e.compactions[key])
	}

	// Category line counts sorted by category name.
	for kind, count := range e.categoryCounts {
		snap.CategoryCounts = append(snap.CategoryCounts, model.KindCount{
			Kind:  kind.String(),
			Count: count,
		})
	}
	sort.Slice(snap.CategoryCounts, func(i, j int) bool {
		return snap.CategoryCounts[i].Kind < snap.CategoryCounts[j].Kind
	})

	logrus.WithFields(logrus.Fields{
		"entries":      snap.TotalEntries,
		"counters":     len(snap.Counters),
		"histograms":   len(snap.Histograms),
		"compactions":  len(snap.Compactions),
		"unrecognized": snap.UnrecognizedCount,
	}).Debug("snapshot finalized")

	return snap, nil
}

func (e *Engine) trackTime(ev model.Event) {
	if ev.Time.IsZero() {
		return
	}
	if e.meta.StartTime.IsZero() {
		e.meta.StartTime = ev.Time
	}
	if !e.lastTime.IsZero() && ev.Time.Before(e.lastTime) {
		e.NoteIssue("timestamp went backwards at line %d (%s after %s)",
			ev.LineNum,
			ev.Time.Format(model.TimestampLayout),
			e.lastTime.Format(model.TimestampLayout))
		return
	}
	e.lastTime = ev.Time
}

// cf returns the named column family's stats, creating them lazily.
func (e *Engine) cf(name string) *model.ColumnFamilyStats {
	if name == "" {
		name = model.NoColumnFamily
	}
	cf, ok := e.cfs[name]
	if !ok {
		cf = &model.ColumnFamilyStats{Name: name}
		e.cfs[name] = cf
	}
	return cf
}

func (e *Engine) applyFlush(ev model.Event) {
	cf := e.cf(ev.CF)
	info := ev.Flush
	if info == nil {
		return
	}

	if info.Started {
		// The preamble line and the structured flush_started event
		// describe the same job; count it once.
		seen := e.flushStartsSeen[cf.Name]
		if seen == nil {
			seen = make(map[int]bool)
			e.flushStartsSeen[cf.Name] = seen
		}
		if seen[info.JobID] {
			return
		}
		seen[info.JobID] = true
		cf.FlushesStarted++
		return
	}
	cf.FlushesFinished++
}

func (e *Engine) applyStall(ev model.Event) {
	cf := e.cf(ev.CF)
	if ev.Stall == nil {
		return
	}
	if ev.Stall.Kind == model.StallStopped {
		cf.StopCount++
	} else {
		cf.StallCount++
	}

	// Stalls are WARN entries; they show up in the warning list too.
	e.warnings = append(e.warnings, model.WarningRecord{
		Time:    ev.Time,
		Level:   model.LevelWarn,
		CF:      cf.Name,
		Message: ev.Stall.Message,
	})
}

func (e *Engine) applyWarning(ev model.Event) {
	if ev.Warning == nil {
		return
	}

	// The bracketed prefix counts as CF attribution only when it names an
	// already-discovered CF; "[JOB 5]" and similar stay db-wide.
	cfName := model.NoColumnFamily
	msg := ev.Warning.Message
	if ev.CF != "" {
		if _, ok := e.cfs[ev.CF]; ok {
			cfName = ev.CF
			msg = strings.TrimSpace(strings.TrimPrefix(msg, "["+ev.CF+"]"))
		}
	}
	e.warnings = append(e.warnings, model.WarningRecord{
		Time:    ev.Time,
		Level:   ev.Warning.Level,
		CF:      cfName,
		CodePos: ev.Warning.CodePos,
		Message: msg,
	})
}

func (e *Engine) applyStatsDump(ev model.Event) {
	info := ev.StatsDump
	if info == nil {
		return
	}

	e.dbWide.StatsDumps++
	if info.UptimeTotalSec > 0 {
		e.dbWide.LastUptimeSec = info.UptimeTotalSec
	}
	if info.CumulativeStall > 0 || info.CumulativeStallPercent > 0 {
		e.dbWide.CumulativeStall = info.CumulativeStall
		e.dbWide.CumulativeStallPercent = info.CumulativeStallPercent
	}

	for _, lvl := range info.CFLevels {
		cf := e.cf(lvl.CF)
		cf.SizeBytes = lvl.SizeBytes
		cf.NumFiles = lvl.NumFiles
	}

	if info.Truncated {
		e.NoteIssue("stats dump at line %d is truncated", ev.LineNum)
	}
}

func (e *Engine) applyHistogramDump(ev model.Event) {
	info := ev.HistogramDump
	if info == nil {
		return
	}

	for _, c := range info.Counters {
		e.applyCounter(ev.Time, c)
	}
	for _, h := range info.Histograms {
		e.applyHistogram(ev.Time, h)
	}

	if info.Truncated {
		e.NoteIssue("statistics block at line %d is truncated", ev.LineNum)
	}
}

func (e *Engine) applyHeader(ev model.Event) {
	info := ev.Header
	if info == nil {
		return
	}

	if info.Product != "" {
		if e.meta.Product != "" && (e.meta.Product != info.Product || e.meta.Version != info.Version) {
			e.NoteIssue("product/version reported twice (%s %s, then %s %s)",
				e.meta.Product, e.meta.Version, info.Product, info.Version)
		}
		e.meta.Product = info.Product
		e.meta.Version = info.Version
	}
	if info.GitHash != "" {
		if e.meta.GitHash != "" && e.meta.GitHash != info.GitHash {
			e.NoteIssue("git hash reported twice (%s, then %s)", e.meta.GitHash, info.GitHash)
		}
		e.meta.GitHash = info.GitHash
	}
	if info.DBSessionID != "" {
		if e.meta.DBSessionID != "" && e.meta.DBSessionID != info.DBSessionID {
			e.NoteIssue("db session id reported twice (%s, then %s)", e.meta.DBSessionID, info.DBSessionID)
		}
		e.meta.DBSessionID = info.DBSessionID
	}

	if info.OptionsStart {
		e.optionsCF = info.CFName
	}
	if info.OptionName != "" {
		kv := model.OptionKV{Name: info.OptionName, Value: info.OptionValue}
		if e.optionsCF == "" {
			e.dbOptions = append(e.dbOptions, kv)
		} else {
			cf := e.cf(e.optionsCF)
			cf.Options = append(cf.Options, kv)
		}
	}

	if info.CFHasID {
		if info.CFDropped {
			// Drop lines name the CF by id only.
			name, ok := e.cfIDs[info.CFID]
			if !ok {
				e.NoteIssue("dropped column family id %d was never announced", info.CFID)
				return
			}
			e.cf(name).Dropped = true
			return
		}
		e.cfIDs[info.CFID] = info.CFName
	}
}

func (e *Engine) applyUnrecognized(ev model.Event) {
	e.unrecognizedCount++
	e.unrecognizedLineCount += ev.Lines
	if len(e.unrecognized) < e.opts.UnrecognizedCap {
		e.unrecognized = append(e.unrecognized, ev.Raw)
	}
}
