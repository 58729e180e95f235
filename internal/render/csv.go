package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/udi-speedb/log-parser/internal/model"
)

// WriteCountersCSV renders one row per dump time and one column per
// counter, zero-filled where a counter had no value at that time. Returns
// false without writing when there is nothing to report.
func WriteCountersCSV(w io.Writer, snap *model.Snapshot) (bool, error) {
	counters := nonZeroCounters(snap)
	if len(counters) == 0 {
		return false, nil
	}

	times := counterTimes(counters)

	out := csv.NewWriter(w)
	header := []string{""}
	for _, c := range counters {
		header = append(header, c.Name)
	}
	if err := out.Write(header); err != nil {
		return false, err
	}

	// Counters may miss some dump times; a per-counter cursor advances
	// only when the counter has a value at the row's time.
	cursor := make([]int, len(counters))
	for _, t := range times {
		row := []string{t.Format(model.TimestampLayout)}
		for i, c := range counters {
			value := int64(0)
			if cursor[i] < len(c.Entries) && c.Entries[cursor[i]].Time.Equal(t) {
				value = c.Entries[cursor[i]].Value
				cursor[i]++
			}
			row = append(row, strconv.FormatInt(value, 10))
		}
		if err := out.Write(row); err != nil {
			return false, err
		}
	}

	out.Flush()
	return true, out.Error()
}

func nonZeroCounters(snap *model.Snapshot) []model.Counter {
	var counters []model.Counter
	for _, c := range snap.Counters {
		for _, entry := range c.Entries {
			if entry.Value != 0 {
				counters = append(counters, c)
				break
			}
		}
	}
	return counters
}

func counterTimes(counters []model.Counter) []time.Time {
	seen := make(map[time.Time]bool)
	var times []time.Time
	for _, c := range counters {
		for _, entry := range c.Entries {
			if !seen[entry.Time] {
				seen[entry.Time] = true
				times = append(times, entry.Time)
			}
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times
}

// WriteHistogramsCSV renders the human-oriented histograms file: one row
// per histogram with formatted sizes and averages.
func WriteHistogramsCSV(w io.Writer, snap *model.Snapshot) (bool, error) {
	histograms := nonZeroHistograms(snap)
	if len(histograms) == 0 {
		return false, nil
	}

	out := csv.NewWriter(w)
	header := []string{
		"Name", "Last Dump", "P50", "P95", "P99", "P100",
		"Count", "Sum", "Average", "Interval Count", "Interval Sum", "Dumps",
	}
	if err := out.Write(header); err != nil {
		return false, err
	}

	for i := range histograms {
		h := &histograms[i]
		row := []string{
			h.Name,
			h.LastTime.Format(model.TimestampLayout),
			fmt.Sprintf("%.2f", h.P50),
			fmt.Sprintf("%.2f", h.P95),
			fmt.Sprintf("%.2f", h.P99),
			fmt.Sprintf("%.2f", h.P100),
			strconv.FormatInt(h.Count, 10),
			strconv.FormatInt(h.Sum, 10),
			fmt.Sprintf("%.2f", h.Average),
			strconv.FormatInt(h.IntervalCount, 10),
			strconv.FormatInt(h.IntervalSum, 10),
			strconv.Itoa(h.NumDumps),
		}
		if err := out.Write(row); err != nil {
			return false, err
		}
	}

	out.Flush()
	return true, out.Error()
}

// WriteToolsHistogramsCSV renders the machine-oriented histograms file:
// raw values, snake_case columns, no formatting.
func WriteToolsHistogramsCSV(w io.Writer, snap *model.Snapshot) (bool, error) {
	histograms := nonZeroHistograms(snap)
	if len(histograms) == 0 {
		return false, nil
	}

	out := csv.NewWriter(w)
	header := []string{
		"name", "last_dump", "p50", "p95", "p99", "p100",
		"count", "sum", "interval_count", "interval_sum", "num_dumps",
	}
	if err := out.Write(header); err != nil {
		return false, err
	}

	for i := range histograms {
		h := &histograms[i]
		row := []string{
			h.Name,
			h.LastTime.Format(model.TimestampLayout),
			strconv.FormatFloat(h.P50, 'g', -1, 64),
			strconv.FormatFloat(h.P95, 'g', -1, 64),
			strconv.FormatFloat(h.P99, 'g', -1, 64),
			strconv.FormatFloat(h.P100, 'g', -1, 64),
			strconv.FormatInt(h.Count, 10),
			strconv.FormatInt(h.Sum, 10),
			strconv.FormatInt(h.IntervalCount, 10),
			strconv.FormatInt(h.IntervalSum, 10),
			strconv.Itoa(h.NumDumps),
		}
		if err := out.Write(row); err != nil {
			return false, err
		}
	}

	out.Flush()
	return true, out.Error()
}

func nonZeroHistograms(snap *model.Snapshot) []model.Histogram {
	var histograms []model.Histogram
	for _, h := range snap.Histograms {
		if h.Count > 0 || h.Sum > 0 {
			histograms = append(histograms, h)
		}
	}
	return histograms
}

// WriteCompactionsCSV renders one row per compaction record, complete and
// pending alike.
func WriteCompactionsCSV(w io.Writer, snap *model.Snapshot) (bool, error) {
	if len(snap.Compactions) == 0 {
		return false, nil
	}

	out := csv.NewWriter(w)
	header := []string{
		"column_family", "job_id", "state", "start_unknown",
		"start_time", "finish_time",
		"input_level", "output_level", "input_files", "output_files",
		"score", "bytes_written", "duration_micros",
		"records_in", "records_dropped",
	}
	if err := out.Write(header); err != nil {
		return false, err
	}

	for i := range snap.Compactions {
		rec := &snap.Compactions[i]
		row := []string{
			rec.CF,
			strconv.Itoa(rec.JobID),
			rec.State.String(),
			strconv.FormatBool(rec.StartUnknown),
			formatTime(rec.StartTime),
			formatTime(rec.FinishTime),
			strconv.Itoa(rec.InputLevel),
			strconv.Itoa(rec.OutputLevel),
			strconv.Itoa(rec.InputFileCount),
			strconv.Itoa(rec.OutputFileCount),
			strconv.FormatFloat(rec.Score, 'g', -1, 64),
			strconv.FormatInt(rec.BytesWritten, 10),
			strconv.FormatInt(rec.DurationMicros, 10),
			strconv.FormatInt(rec.RecordsIn, 10),
			strconv.FormatInt(rec.RecordsDropped, 10),
		}
		if err := out.Write(row); err != nil {
			return false, err
		}
	}

	out.Flush()
	return true, out.Error()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.TimestampLayout)
}
