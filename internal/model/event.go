package model

import "time"

// EventKind identifies the category a log entry was classified into.
type EventKind int

const (
	KindUnrecognized EventKind = iota
	KindFlush
	KindCompactionStart
	KindCompactionFinish
	KindStall
	KindStatsDump
	KindHistogramDump
	KindWarning
	KindError
	KindOptionsHeader
	KindOtherEvent // structured EVENT_LOG_v1 entries of types we do not aggregate
)

var eventKindNames = map[EventKind]string{
	KindUnrecognized:     "unrecognized",
	KindFlush:            "flush",
	KindCompactionStart:  "compaction_start",
	KindCompactionFinish: "compaction_finish",
	KindStall:            "stall",
	KindStatsDump:        "stats_dump",
	KindHistogramDump:    "histogram_dump",
	KindWarning:          "warning",
	KindError:            "error",
	KindOptionsHeader:    "options_header",
	KindOtherEvent:       "other_event",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is one typed event extracted from a classified log entry.
// Exactly one payload pointer matching Kind is set; the rest are nil.
type Event struct {
	Kind    EventKind
	Time    time.Time
	CF      string // empty when the event is db-wide
	LineNum int    // entry start line, for diagnostics
	Lines   int    // non-blank physical lines the source entry spans

	Flush            *FlushInfo
	CompactionStart  *CompactionStartInfo
	CompactionFinish *CompactionFinishInfo
	Stall            *StallInfo
	StatsDump        *StatsDumpInfo
	HistogramDump    *HistogramDumpInfo
	Warning          *WarningInfo
	Header           *HeaderInfo
	Other            *OtherEventInfo
	Raw              string // verbatim first line for unrecognized entries
}

// FlushInfo carries a memtable flush start or finish.
type FlushInfo struct {
	JobID         int
	Started       bool // true for flush_started / flush preamble, false for flush_finished
	Reason        string
	NumMemtables  int
	TotalDataSize int64
}

// CompactionStartInfo is extracted from the compaction preamble line
// "[cf] [JOB n] Compacting 1@1 + 5@2 files to L2, score 1.63".
type CompactionStartInfo struct {
	JobID          int
	InputLevel     int
	OutputLevel    int
	InputFileCount int
	Score          float64
}

// CompactionFinishInfo is extracted from the compaction_finished
// EVENT_LOG_v1 entry.
type CompactionFinishInfo struct {
	JobID           int
	OutputLevel     int
	OutputFileCount int
	BytesWritten    int64
	DurationMicros  int64
	RecordsIn       int64
	RecordsDropped  int64
}

// StallKind distinguishes slowed writes from fully stopped writes.
type StallKind int

const (
	StallDelayed StallKind = iota // "Stalling writes"
	StallStopped                  // "Stopping writes"
)

// StallInfo carries a write-stall warning scoped to one column family.
type StallInfo struct {
	Kind    StallKind
	Message string
}

// CounterDump is one reported value of a named statistics counter.
type CounterDump struct {
	Name  string
	Value int64
}

// HistogramDump is one self-contained cumulative snapshot of a named
// histogram as reported by a statistics dump line.
type HistogramDump struct {
	Name  string
	P50   float64
	P95   float64
	P99   float64
	P100  float64
	Count int64
	Sum   int64
}

// CFLevelStats is the Sum row of one column family's compaction stats
// table inside a DUMPING STATS block.
type CFLevelStats struct {
	CF        string
	NumFiles  int
	SizeBytes int64
}

// StatsDumpInfo is the parsed body of a "------- DUMPING STATS -------"
// block: db-wide stall totals and per-CF compaction table summaries.
type StatsDumpInfo struct {
	UptimeTotalSec         float64
	UptimeIntervalSec      float64
	CumulativeStall        time.Duration
	CumulativeStallPercent float64
	IntervalStall          time.Duration
	IntervalStallPercent   float64
	CFLevels               []CFLevelStats
	Truncated              bool // block ended at EOF before a terminator
}

// HistogramDumpInfo is the parsed body of a "STATISTICS:" block:
// counter lines and histogram lines, in file order.
type HistogramDumpInfo struct {
	Counters   []CounterDump
	Histograms []HistogramDump
	Truncated  bool
}

// WarningInfo carries a WARN/ERROR/FATAL log entry.
type WarningInfo struct {
	Level   Level
	CodePos string
	Message string
}

// HeaderInfo carries file metadata and options-header facts found in the
// log preamble region (and CF lifecycle lines anywhere in the file).
type HeaderInfo struct {
	Product     string // "RocksDB" / "Speedb", set with Version
	Version     string
	GitHash     string
	DBSessionID string

	CFName       string // set for CF options banners and lifecycle lines
	CFID         int    // valid only when CFHasID
	CFHasID      bool   // lifecycle lines announce the CF's numeric id
	CFDropped    bool   // drop lines name the CF by id only
	OptionsStart bool   // true for the per-CF options banner

	// One "Options.<name>: <value>" assignment; scoped to the most
	// recently opened options banner, db-wide before the first one.
	OptionName  string
	OptionValue string
}

// OtherEventInfo carries an EVENT_LOG_v1 entry of a type that is
// recognized but not aggregated (table file creation and the like).
type OtherEventInfo struct {
	EventType string
	JobID     int
}
