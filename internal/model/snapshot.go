package model

import "time"

// CounterKind controls how repeated dumps of the same counter combine.
type CounterKind int

const (
	// CounterCumulative values are totals-to-date: the latest dump wins.
	CounterCumulative CounterKind = iota
	// CounterDelta values are per-interval increments: dumps accumulate.
	CounterDelta
)

func (k CounterKind) String() string {
	if k == CounterDelta {
		return "delta"
	}
	return "cumulative"
}

// CounterEntry is one (time, value) observation of a counter.
type CounterEntry struct {
	Time  time.Time
	Value int64
}

// Counter is a named statistics counter with its dump series in file order.
// Value holds the aggregate under the counter's kind semantics.
type Counter struct {
	Name    string
	Kind    CounterKind
	Value   int64
	Entries []CounterEntry
}

// Histogram is the latest self-contained snapshot of a named histogram.
// Later dumps overwrite earlier ones; interval fields are the deltas
// against the previous dump at overwrite time.
type Histogram struct {
	Name          string
	P50           float64
	P95           float64
	P99           float64
	P100          float64
	Count         int64
	Sum           int64
	Average       float64
	IntervalCount int64
	IntervalSum   int64
	NumDumps      int
	LastTime      time.Time
}

// CompactionState tracks a compaction record's lifecycle.
type CompactionState int

const (
	CompactionPending CompactionState = iota
	CompactionFinished
)

func (s CompactionState) String() string {
	if s == CompactionFinished {
		return "finished"
	}
	return "pending"
}

// CompactionRecord is one compaction job reconstructed from its start and
// finish log entries, keyed by (CF, JobID).
type CompactionRecord struct {
	CF    string
	JobID int
	State CompactionState

	// StartUnknown marks a finish with no matching start in the file.
	StartUnknown bool

	StartTime  time.Time
	FinishTime time.Time

	InputLevel      int
	OutputLevel     int
	InputFileCount  int
	OutputFileCount int
	Score           float64
	BytesWritten    int64
	DurationMicros  int64
	RecordsIn       int64
	RecordsDropped  int64
}

// WarningRecord is one WARN/ERROR/FATAL entry, chronological.
type WarningRecord struct {
	Time    time.Time
	Level   Level
	CF      string // NoColumnFamily when db-wide
	CodePos string
	Message string
}

// OptionKV is one parsed "Options.<name>: <value>" assignment, in file
// order.
type OptionKV struct {
	Name  string
	Value string
}

// ColumnFamilyStats aggregates per-column-family activity.
type ColumnFamilyStats struct {
	Name                string
	Dropped             bool // a drop line named this CF's id
	FlushesStarted      int
	FlushesFinished     int
	StallCount          int
	StopCount           int
	CompactionsStarted  int
	CompactionsFinished int
	CompactionsPending  int
	SizeBytes           int64 // Sum row of the last compaction stats dump
	NumFiles            int
	Options             []OptionKV // from the CF's options banner block
}

// FileMetadata describes the parsed log file itself.
type FileMetadata struct {
	Path        string
	Product     string
	Version     string
	GitHash     string
	DBSessionID string
	StartTime   time.Time
	EndTime     time.Time
}

// DBWideStats carries the db-wide figures of the last DUMPING STATS block.
type DBWideStats struct {
	StatsDumps             int
	LastUptimeSec          float64
	CumulativeStall        time.Duration
	CumulativeStallPercent float64
}

// KindCount is the number of entries classified into one category.
type KindCount struct {
	Kind  string
	Count int
}

// Snapshot is the immutable result of one parse. Slices are ordered
// deterministically (see each field) so repeated runs over the same input
// render byte-identical output.
type Snapshot struct {
	Metadata FileMetadata
	DBWide   DBWideStats

	// Counters and Histograms keep first-appearance order from the file.
	Counters   []Counter
	Histograms []Histogram

	// DBOptions holds option assignments logged before any per-CF
	// options banner, in file order.
	DBOptions []OptionKV

	// ColumnFamilies is sorted by name.
	ColumnFamilies []ColumnFamilyStats

	// Compactions is sorted by (CF, JobID).
	Compactions []CompactionRecord

	// Warnings is chronological (file order).
	Warnings []WarningRecord

	// CategoryCounts is sorted by category name and, together with
	// UnrecognizedCount, accounts for every parsed entry exactly once.
	CategoryCounts []KindCount

	UnrecognizedCount    int      // physical non-blank lines
	UnrecognizedEntries  int      // log entries those lines group into
	UnrecognizedSample   []string // capped verbatim retention, file order
	UnrecognizedOverflow int      // entries beyond the retention cap

	// ParseIssues lists non-fatal anomalies observed while parsing
	// (malformed events, out-of-order timestamps, orphaned compactions).
	ParseIssues []string

	TotalEntries int
	TotalLines   int
}

// CounterByName returns the named counter, or nil.
func (s *Snapshot) CounterByName(name string) *Counter {
	for i := range s.Counters {
		if s.Counters[i].Name == name {
			return &s.Counters[i]
		}
	}
	return nil
}

// HistogramByName returns the named histogram, or nil.
func (s *Snapshot) HistogramByName(name string) *Histogram {
	for i := range s.Histograms {
		if s.Histograms[i].Name == name {
			return &s.Histograms[i]
		}
	}
	return nil
}

// CFByName returns the named column family's stats, or nil.
func (s *Snapshot) CFByName(name string) *ColumnFamilyStats {
	for i := range s.ColumnFamilies {
		if s.ColumnFamilies[i].Name == name {
			return &s.ColumnFamilies[i]
		}
	}
	return nil
}
