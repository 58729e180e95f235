package logparse

import (
	"github.com/udi-speedb/log-parser/internal/model"
)

// Match is the classifier verdict for one log entry: the category it
// belongs to plus the winning pattern's submatch groups, which the
// matching extractor consumes.
type Match struct {
	Kind   model.EventKind
	Groups []string
}

// Structured event types the aggregation engine folds into its model.
// Everything else EVENT_LOG_v1 reports is kept as an "other" event.
const (
	eventFlushStarted       = "flush_started"
	eventFlushFinished      = "flush_finished"
	eventCompactionStarted  = "compaction_started"
	eventCompactionFinished = "compaction_finished"
)

// Classify determines which single category the entry belongs to.
// Patterns are tried in a fixed priority order and the first match wins;
// the pattern set is arranged so no two categories can claim one line.
func Classify(e *model.LogEntry) Match {
	msg := e.Msg

	// Severity-tagged entries. Write stalls are warnings too, so they are
	// tested first within the tagged branch.
	if e.Level == model.LevelWarn || e.Level == model.LevelError || e.Level == model.LevelFatal {
		if g := StallRe.FindStringSubmatch(msg); g != nil {
			return Match{Kind: model.KindStall, Groups: g}
		}
		if e.Level == model.LevelWarn {
			return Match{Kind: model.KindWarning}
		}
		return Match{Kind: model.KindError}
	}

	// Statistics dump blocks. The DUMPING STATS banner and the DB Stats
	// body may arrive as separate entries; both open a stats-dump block.
	if DumpStatsRe.MatchString(msg) || DBStatsRe.MatchString(msg) {
		return Match{Kind: model.KindStatsDump}
	}
	if StatisticsRe.MatchString(msg) {
		return Match{Kind: model.KindHistogramDump}
	}

	// Compaction and flush preambles.
	if g := CompactionStartRe.FindStringSubmatch(msg); g != nil {
		return Match{Kind: model.KindCompactionStart, Groups: g}
	}
	if g := FlushPreambleRe.FindStringSubmatch(msg); g != nil {
		return Match{Kind: model.KindFlush, Groups: g}
	}

	// Structured EVENT_LOG_v1 entries, dispatched on the embedded type.
	if EventMarkerRe.MatchString(msg) {
		g := EventTypeRe.FindStringSubmatch(msg)
		eventType := ""
		if g != nil {
			eventType = g[1]
		}
		switch eventType {
		case eventFlushStarted, eventFlushFinished:
			return Match{Kind: model.KindFlush, Groups: []string{eventType}}
		case eventCompactionFinished:
			return Match{Kind: model.KindCompactionFinish, Groups: []string{eventType}}
		case eventCompactionStarted:
			// The preamble line carries the richer start fields; the
			// structured twin is retained without re-opening a record.
			return Match{Kind: model.KindOtherEvent, Groups: []string{eventType}}
		default:
			return Match{Kind: model.KindOtherEvent, Groups: []string{eventType}}
		}
	}

	// File metadata, options headers, CF lifecycle.
	for _, re := range []interface{ FindStringSubmatch(string) []string }{
		ProductVersionRe, GitHashRe, DBSessionIDRe,
		CFOptionsStartRe, RecoveredCFRe, CreatedCFRe, DroppedCFRe,
	} {
		if g := re.FindStringSubmatch(msg); g != nil {
			return Match{Kind: model.KindOptionsHeader, Groups: g}
		}
	}
	if OptionLineRe.MatchString(msg) || TableOptionsRe.MatchString(msg) ||
		CompressionSupportedRe.MatchString(msg) {
		return Match{Kind: model.KindOptionsHeader}
	}

	return Match{Kind: model.KindUnrecognized}
}
