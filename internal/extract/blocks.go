package extract

import (
	"strconv"
	"strings"
	"time"

	"github.com/udi-speedb/log-parser/internal/logparse"
	"github.com/udi-speedb/log-parser/internal/model"
)

// parseStatsDump walks the body of a DUMPING STATS block. The block is a
// sequence of sections, each opened by a "** ... **" banner; a section runs
// until the next banner or the end of the entry, so consumption is bounded
// by the entry itself. A compaction table cut off before its Sum row marks
// the dump truncated instead of failing it.
func parseStatsDump(e *model.LogEntry) (*model.StatsDumpInfo, error) {
	info := &model.StatsDumpInfo{}

	lines := e.MsgLines
	i := 0
	for i < len(lines) {
		line := lines[i]

		switch {
		case logparse.DBStatsRe.MatchString(line):
			i = parseDBStatsSection(lines, i+1, info)
		case logparse.CompactionStatsRe.MatchString(line):
			cf := logparse.CompactionStatsRe.FindStringSubmatch(line)[1]
			i = parseCompactionTable(lines, i+1, cf, info)
		default:
			i++
		}
	}

	return info, nil
}

func parseDBStatsSection(lines []string, start int, info *model.StatsDumpInfo) int {
	i := start
	for i < len(lines) && !isSectionBanner(lines[i]) {
		line := lines[i]
		if g := logparse.UptimeRe.FindStringSubmatch(line); g != nil {
			info.UptimeTotalSec, _ = logparse.ParseFloat(g[1])
			info.UptimeIntervalSec, _ = logparse.ParseFloat(g[2])
		} else if g := logparse.CumulativeStallRe.FindStringSubmatch(line); g != nil {
			info.CumulativeStall = stallDuration(g)
			info.CumulativeStallPercent, _ = logparse.ParseFloat(g[5])
		} else if g := logparse.IntervalStallRe.FindStringSubmatch(line); g != nil {
			info.IntervalStall = stallDuration(g)
			info.IntervalStallPercent, _ = logparse.ParseFloat(g[5])
		}
		i++
	}
	return i
}

// parseCompactionTable extracts the Sum row of one column family's
// compaction stats table:
//
//	Level    Files   Size     Score ...
//	----------------------------------
//	  L0      2/0    64.51 MB   0.8 ...
//	  Sum    12/0     4.50 GB   0.0 ...
func parseCompactionTable(lines []string, start int, cf string, info *model.StatsDumpInfo) int {
	i := start
	sawSum := false
	for i < len(lines) && !isSectionBanner(lines[i]) {
		fields := strings.Fields(lines[i])
		i++
		if len(fields) < 4 || fields[0] != "Sum" {
			continue
		}

		numFiles := 0
		if slash := strings.IndexByte(fields[1], '/'); slash > 0 {
			numFiles, _ = strconv.Atoi(fields[1][:slash])
		}
		size, err := logparse.ParseBytes(fields[2], fields[3])
		if err != nil {
			continue
		}
		info.CFLevels = append(info.CFLevels, model.CFLevelStats{
			CF:        cf,
			NumFiles:  numFiles,
			SizeBytes: size,
		})
		sawSum = true
	}
	if !sawSum {
		info.Truncated = true
	}
	return i
}

func isSectionBanner(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "**")
}

func stallDuration(g []string) time.Duration {
	hours, _ := strconv.Atoi(g[1])
	minutes, _ := strconv.Atoi(g[2])
	seconds, _ := strconv.Atoi(g[3])
	millis, _ := strconv.Atoi(g[4])
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
}

// parseStatistics walks the body of a "STATISTICS:" entry: one counter or
// histogram dump per line. Lines matching neither pattern are skipped; if
// the final non-blank line is one of them the block is likely cut at end
// of file and is flagged truncated rather than dropped.
func parseStatistics(e *model.LogEntry) *model.HistogramDumpInfo {
	info := &model.HistogramDumpInfo{}

	lastUnparsed := false
	for _, line := range e.MsgLines {
		if strings.TrimSpace(line) == "" || logparse.StatisticsRe.MatchString(line) {
			continue
		}

		if g := logparse.StatsCounterRe.FindStringSubmatch(line); g != nil {
			value, err := strconv.ParseInt(g[2], 10, 64)
			if err != nil {
				lastUnparsed = true
				continue
			}
			info.Counters = append(info.Counters, model.CounterDump{Name: g[1], Value: value})
			lastUnparsed = false
			continue
		}

		if g := logparse.StatsHistogramRe.FindStringSubmatch(line); g != nil {
			h, ok := parseHistogramGroups(g)
			if !ok {
				lastUnparsed = true
				continue
			}
			info.Histograms = append(info.Histograms, h)
			lastUnparsed = false
			continue
		}

		lastUnparsed = true
	}

	info.Truncated = lastUnparsed
	return info
}

func parseHistogramGroups(g []string) (model.HistogramDump, bool) {
	var h model.HistogramDump
	var err error

	h.Name = g[1]
	if h.P50, err = logparse.ParseFloat(g[2]); err != nil {
		return h, false
	}
	if h.P95, err = logparse.ParseFloat(g[3]); err != nil {
		return h, false
	}
	if h.P99, err = logparse.ParseFloat(g[4]); err != nil {
		return h, false
	}
	if h.P100, err = logparse.ParseFloat(g[5]); err != nil {
		return h, false
	}
	if h.Count, err = strconv.ParseInt(g[6], 10, 64); err != nil {
		return h, false
	}
	if h.Sum, err = strconv.ParseInt(g[7], 10, 64); err != nil {
		return h, false
	}
	return h, true
}
