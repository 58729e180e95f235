package model

import "time"

// TimestampLayout is the fixed timestamp format at the start of every
// RocksDB/Speedb log line, e.g. "2023/01/04-08:54:59.130735".
const TimestampLayout = "2006/01/02-15:04:05.000000"

// NoColumnFamily scopes db-wide statistics that carry no column family.
const NoColumnFamily = "DB_WIDE"

// DefaultColumnFamily is the column family every database starts with.
const DefaultColumnFamily = "default"

// Level is the severity tag carried in a log line header ([WARN] etc.).
// Plain informational lines carry no tag and map to LevelInfo.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
	LevelFatal Level = "FATAL"
)

// LogEntry is one logical log entry: a timestamp-anchored line plus any
// continuation lines that follow it (lines not starting with a timestamp).
type LogEntry struct {
	Index    int // entry index in file order, 0-based
	LineNum  int // 1-based physical line number of the entry start
	Time     time.Time
	Context  string    // thread/context id token following the timestamp
	OrigTime time.Time // set when the line carries "(Original Log Time ...)"
	Level    Level
	CodePos  string   // source position tag, e.g. "[/flush_job.cc:858]"
	Msg      string   // first message line, trimmed
	MsgLines []string // full message body, one element per physical line
}

// NumLines returns the number of physical lines the entry spans.
func (e *LogEntry) NumLines() int {
	if len(e.MsgLines) > 1 {
		return len(e.MsgLines)
	}
	return 1
}
