package logparse

import "regexp"

// Building blocks shared by the patterns below. They mirror the numeric
// formatting the RocksDB/Speedb log writer uses.
const (
	tsPat    = `\d{4}/\d{2}/\d{2}-\d{2}:\d{2}:\d{2}\.\d{6}`
	floatPat = `[-+]?(?:\d+(?:[.,]\d*)?|[.,]\d+)(?:[eE][-+]?\d+)?`
	codePos  = `\[\/?.*?\.[\w:]+:\d+\]`
)

// EntryStartRe matches the fixed prefix every log entry starts with.
var EntryStartRe = regexp.MustCompile(`^` + tsPat)

// HeaderRe decomposes an entry start line into its parts:
// timestamp, context id, optional original-log-time, optional severity
// tag, optional code position, message remainder.
var HeaderRe = regexp.MustCompile(
	`^(` + tsPat + `) (\w+)\s*` +
		`(?:\(Original Log Time (` + tsPat + `)\))?\s*` +
		`(?:\[(WARN|ERROR|FATAL)\]\s*)?` +
		`(` + codePos + `)?\s?(.*)$`)

// Compaction lifecycle lines.
var (
	// "[default] [JOB 13] Compacting 1@1 + 5@2 files to L2, score 1.63"
	CompactionStartRe = regexp.MustCompile(
		`^\[([^\]]*)\] \[JOB (\d+)\] Compacting (.+?) files to L(\d+), score\s*(` + floatPat + `)`)

	// One "N@L" input group inside the Compacting line.
	CompactionInputRe = regexp.MustCompile(`(\d+)@(\d+)`)
)

// Flush preamble: "[cf] [JOB n] Flushing memtable with next log file: N".
var FlushPreambleRe = regexp.MustCompile(
	`^\[([^\]]*)\] \[JOB (\d+)\] Flushing memtable with next log file: (\d+)`)

// Structured EVENT_LOG_v1 entries. EventTypeRe pulls the event type out of
// the embedded JSON without a full decode.
var (
	EventMarkerRe = regexp.MustCompile(`EVENT_LOG_v1`)
	EventTypeRe   = regexp.MustCompile(`"event"\s*:\s*"(\w+)"`)
)

// Write stall warnings: "[cf] Stalling writes ..." / "[cf] Stopping writes ...".
var StallRe = regexp.MustCompile(`^\[([^\]]*)\]\s*(Stalling writes|Stopping writes)\s*(.*)`)

// Statistics dump blocks.
var (
	DumpStatsRe       = regexp.MustCompile(`------- DUMPING STATS -------`)
	DBStatsRe         = regexp.MustCompile(`^\s*\*\* DB Stats \*\*\s*$`)
	CompactionStatsRe = regexp.MustCompile(`^\s*\*\* Compaction Stats \[(.*)\] \*\*\s*$`)
	FileReadLatencyRe = regexp.MustCompile(`^\s*\*\* File Read Latency Histogram By Level \[(.*)\] \*\*\s*$`)
	StatisticsRe      = regexp.MustCompile(`^\s*STATISTICS:\s*$`)

	UptimeRe = regexp.MustCompile(
		`^\s*Uptime\(secs\):\s*(` + floatPat + `)\s*total,\s*(` + floatPat + `)\s*interval`)
	CumulativeStallRe = regexp.MustCompile(
		`Cumulative stall: (\d+):(\d+):(\d+)\.(\d+) H:M:S, (` + floatPat + `) percent`)
	IntervalStallRe = regexp.MustCompile(
		`Interval stall: (\d+):(\d+):(\d+)\.(\d+) H:M:S, (` + floatPat + `) percent`)

	// "rocksdb.block.cache.miss COUNT : 61"
	StatsCounterRe = regexp.MustCompile(`^\s*([\w\.]+)\s+COUNT\s*:\s*(\d+)\s*$`)

	// "rocksdb.db.get.micros P50 : 1.20 P95 : 4.00 P99 : 5.00 P100 : 9.00 COUNT : 100 SUM : 312"
	StatsHistogramRe = regexp.MustCompile(
		`^\s*([\w\.]+)\s+P50\s*:\s*(` + floatPat + `)\s+P95\s*:\s*(` + floatPat + `)` +
			`\s+P99\s*:\s*(` + floatPat + `)\s+P100\s*:\s*(` + floatPat + `)` +
			`\s+COUNT\s*:\s*(\d+)\s+SUM\s*:\s*(\d+)`)
)

// File metadata and options headers.
var (
	ProductVersionRe = regexp.MustCompile(`^(\S+) version: ([0-9.]+)`)
	GitHashRe        = regexp.MustCompile(`^Git sha\s+(\S+)`)
	DBSessionIDRe    = regexp.MustCompile(`^DB Session ID:\s*([0-9A-Z]+)`)

	CFOptionsStartRe       = regexp.MustCompile(`^--------------- Options for column family \[(.*)\]:`)
	OptionLineRe           = regexp.MustCompile(`^\s*Options\.(\S+)\s*:\s*(.*)$`)
	TableOptionsRe         = regexp.MustCompile(`^\s*table_factory options:`)
	CompressionSupportedRe = regexp.MustCompile(`^\s*Compression algorithms supported:`)

	// CF lifecycle lines.
	RecoveredCFRe = regexp.MustCompile(`^Column family \[([^\]]*)\]\s*\(ID\s+(\d+)\)`)
	CreatedCFRe   = regexp.MustCompile(`^Created column family \[([^\]]*)\]\s*\(ID\s+(\d+)\)`)
	DroppedCFRe   = regexp.MustCompile(`^Dropped column family with id (\d+)`)
)
