package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/udi-speedb/log-parser/internal/logparse"
	"github.com/udi-speedb/log-parser/internal/model"
)

// MalformedEventError reports a classified line whose fields could not be
// extracted (missing field, bad number). Callers downgrade the entry to
// unrecognized and keep going.
type MalformedEventError struct {
	Kind    model.EventKind
	LineNum int
	Reason  string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event at line %d: %s", e.Kind, e.LineNum, e.Reason)
}

var cfPrefixRe = regexp.MustCompile(`^\[([^\]]*)\]\s*(.*)$`)

// nonBlankLines counts the physical lines the entry occupies for the
// per-category accounting: the timestamped start line always counts, blank
// continuation lines never do.
func nonBlankLines(e *model.LogEntry) int {
	n := 1
	for _, line := range e.MsgLines[1:] {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// Extract converts a classified entry into a fully-typed event.
func Extract(e *model.LogEntry, m logparse.Match) (model.Event, error) {
	ev := model.Event{
		Kind:    m.Kind,
		Time:    e.Time,
		LineNum: e.LineNum,
		Lines:   nonBlankLines(e),
	}

	switch m.Kind {
	case model.KindStall:
		return extractStall(e, m, ev)
	case model.KindWarning, model.KindError:
		return extractWarning(e, ev)
	case model.KindCompactionStart:
		return extractCompactionStart(e, m, ev)
	case model.KindFlush:
		return extractFlush(e, m, ev)
	case model.KindCompactionFinish:
		return extractStructuredEvent(e, ev)
	case model.KindOtherEvent:
		return extractOtherEvent(e, m, ev)
	case model.KindStatsDump:
		info, err := parseStatsDump(e)
		if err != nil {
			return ev, err
		}
		ev.StatsDump = info
		return ev, nil
	case model.KindHistogramDump:
		ev.HistogramDump = parseStatistics(e)
		return ev, nil
	case model.KindOptionsHeader:
		return extractHeader(e, ev)
	default:
		ev.Kind = model.KindUnrecognized
		ev.Raw = e.Msg
		return ev, nil
	}
}

func extractStall(e *model.LogEntry, m logparse.Match, ev model.Event) (model.Event, error) {
	if len(m.Groups) < 4 {
		return ev, &MalformedEventError{Kind: ev.Kind, LineNum: e.LineNum, Reason: "missing stall groups"}
	}
	kind := model.StallDelayed
	if m.Groups[2] == "Stopping writes" {
		kind = model.StallStopped
	}
	ev.CF = m.Groups[1]
	ev.Stall = &model.StallInfo{
		Kind:    kind,
		Message: strings.TrimSpace(m.Groups[2] + " " + m.Groups[3]),
	}
	return ev, nil
}

// extractWarning reports a leading bracketed token as a CF candidate only;
// the engine decides whether it names a known column family ([JOB 5] and
// friends do not) and strips it then.
func extractWarning(e *model.LogEntry, ev model.Event) (model.Event, error) {
	if g := cfPrefixRe.FindStringSubmatch(e.Msg); g != nil {
		ev.CF = g[1]
	}
	ev.Warning = &model.WarningInfo{
		Level:   e.Level,
		CodePos: e.CodePos,
		Message: strings.TrimSpace(e.Msg),
	}
	return ev, nil
}

func extractCompactionStart(e *model.LogEntry, m logparse.Match, ev model.Event) (model.Event, error) {
	if len(m.Groups) < 6 {
		return ev, &MalformedEventError{Kind: ev.Kind, LineNum: e.LineNum, Reason: "missing compaction groups"}
	}

	jobID, err := strconv.Atoi(m.Groups[2])
	if err != nil {
		return ev, &MalformedEventError{Kind: ev.Kind, LineNum: e.LineNum, Reason: "non-numeric job id"}
	}
	outputLevel, err := strconv.Atoi(m.Groups[4])
	if err != nil {
		return ev, &MalformedEventError{Kind: ev.Kind, LineNum: e.LineNum, Reason: "non-numeric output level"}
	}
	score, err := logparse.ParseFloat(m.Groups[5])
	if err != nil {
		return ev, &MalformedEventError{Kind: ev.Kind, LineNum: e.LineNum, Reason: "bad score"}
	}

	// "1@1 + 5@2" — count@level input groups; the first group names the
	// compaction's input level.
	inputs := logparse.CompactionInputRe.FindAllStringSubmatch(m.Groups[3], -1)
	if len(inputs) == 0 {
		return ev, &MalformedEventError{Kind: ev.Kind, LineNum: e.LineNum, Reason: "no input file groups"}
	}
	inputFiles := 0
	inputLevel := 0
	for i, in := range inputs {
		n, err := strconv.Atoi(in[1])
		if err != nil {
			return ev, &MalformedEventError{Kind: ev.Kind, LineNum: e.LineNum, Reason: "bad input file count"}
		}
		inputFiles += n
		if i == 0 {
			if inputLevel, err = strconv.Atoi(in[2]); err != nil {
				return ev, &MalformedEventError{Kind: ev.Kind, LineNum: e.LineNum, Reason: "bad input level"}
			}
		}
	}

	ev.CF = m.Groups[1]
	ev.CompactionStart = &model.CompactionStartInfo{
		JobID:          jobID,
		InputLevel:     inputLevel,
		OutputLevel:    outputLevel,
		InputFileCount: inputFiles,
		Score:          score,
	}
	return ev, nil
}

func extractFlush(e *model.LogEntry, m logparse.Match, ev model.Event) (model.Event, error) {
	// Preamble form: groups are [line, cf, job, wal-number].
	if g := logparse.FlushPreambleRe.FindStringSubmatch(e.Msg); g != nil {
		jobID, err := strconv.Atoi(g[2])
		if err != nil {
			return ev, &MalformedEventError{Kind: ev.Kind, LineNum: e.LineNum, Reason: "non-numeric job id"}
		}
		ev.CF = g[1]
		ev.Flush = &model.FlushInfo{JobID: jobID, Started: true}
		return ev, nil
	}

	// Structured EVENT_LOG_v1 form.
	payload, err := decodeEventPayload(e)
	if err != nil {
		return ev, err
	}
	ev.CF = payload.CFName
	ev.Flush = &model.FlushInfo{
		JobID:         payload.Job,
		Started:       payload.Event == eventFlushStarted,
		Reason:        payload.FlushReason,
		NumMemtables:  payload.NumMemtables,
		TotalDataSize: payload.TotalDataSize,
	}
	return ev, nil
}

func extractStructuredEvent(e *model.LogEntry, ev model.Event) (model.Event, error) {
	payload, err := decodeEventPayload(e)
	if err != nil {
		return ev, err
	}

	dropped := int64(0)
	if payload.NumInputRecords > 0 && payload.NumInputRecords >= payload.NumOutputRecords {
		dropped = payload.NumInputRecords - payload.NumOutputRecords
	}

	ev.CF = payload.CFName
	ev.CompactionFinish = &model.CompactionFinishInfo{
		JobID:           payload.Job,
		OutputLevel:     payload.OutputLevel,
		OutputFileCount: payload.NumOutputFiles,
		BytesWritten:    payload.TotalOutputSize,
		DurationMicros:  payload.CompactionTimeMicros,
		RecordsIn:       payload.NumInputRecords,
		RecordsDropped:  dropped,
	}
	return ev, nil
}

func extractOtherEvent(e *model.LogEntry, m logparse.Match, ev model.Event) (model.Event, error) {
	eventType := ""
	if len(m.Groups) > 0 {
		eventType = m.Groups[0]
	}
	payload, err := decodeEventPayload(e)
	if err != nil {
		return ev, err
	}
	if eventType == "" {
		eventType = payload.Event
	}
	ev.CF = payload.CFName
	ev.Other = &model.OtherEventInfo{EventType: eventType, JobID: payload.Job}
	return ev, nil
}

func extractHeader(e *model.LogEntry, ev model.Event) (model.Event, error) {
	info := &model.HeaderInfo{}

	switch {
	case logparse.ProductVersionRe.MatchString(e.Msg):
		g := logparse.ProductVersionRe.FindStringSubmatch(e.Msg)
		info.Product = g[1]
		info.Version = g[2]
	case logparse.GitHashRe.MatchString(e.Msg):
		info.GitHash = logparse.GitHashRe.FindStringSubmatch(e.Msg)[1]
	case logparse.DBSessionIDRe.MatchString(e.Msg):
		info.DBSessionID = logparse.DBSessionIDRe.FindStringSubmatch(e.Msg)[1]
	case logparse.CFOptionsStartRe.MatchString(e.Msg):
		info.CFName = logparse.CFOptionsStartRe.FindStringSubmatch(e.Msg)[1]
		info.OptionsStart = true
	case logparse.RecoveredCFRe.MatchString(e.Msg):
		g := logparse.RecoveredCFRe.FindStringSubmatch(e.Msg)
		info.CFName = g[1]
		info.CFID, _ = strconv.Atoi(g[2])
		info.CFHasID = true
	case logparse.CreatedCFRe.MatchString(e.Msg):
		g := logparse.CreatedCFRe.FindStringSubmatch(e.Msg)
		info.CFName = g[1]
		info.CFID, _ = strconv.Atoi(g[2])
		info.CFHasID = true
	case logparse.DroppedCFRe.MatchString(e.Msg):
		g := logparse.DroppedCFRe.FindStringSubmatch(e.Msg)
		info.CFDropped = true
		info.CFID, _ = strconv.Atoi(g[1])
		info.CFHasID = true
	case logparse.OptionLineRe.MatchString(e.Msg):
		g := logparse.OptionLineRe.FindStringSubmatch(e.Msg)
		info.OptionName = g[1]
		info.OptionValue = strings.TrimSpace(g[2])
	}

	ev.CF = info.CFName
	ev.Header = info
	return ev, nil
}
