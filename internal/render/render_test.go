package render

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/udi-speedb/log-parser/internal/model"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	when, err := time.Parse(model.TimestampLayout, s)
	if err != nil {
		t.Fatalf("time.Parse(%q): %v", s, err)
	}
	return when
}

func sampleSnapshot(t *testing.T) *model.Snapshot {
	t.Helper()
	t1 := ts(t, "2023/01/04-09:00:00.000000")
	t2 := ts(t, "2023/01/04-09:10:00.000000")

	return &model.Snapshot{
		Metadata: model.FileMetadata{
			Path:      "LOG",
			Product:   "SpeeDB",
			Version:   "2.2.1",
			StartTime: t1,
			EndTime:   t2,
		},
		Counters: []model.Counter{
			{
				Name: "rocksdb.block.cache.miss", Value: 100,
				Entries: []model.CounterEntry{{Time: t1, Value: 61}, {Time: t2, Value: 100}},
			},
			{
				Name: "rocksdb.block.cache.hit", Value: 14,
				Entries: []model.CounterEntry{{Time: t2, Value: 14}},
			},
			{
				Name:    "rocksdb.always.zero",
				Entries: []model.CounterEntry{{Time: t1, Value: 0}, {Time: t2, Value: 0}},
			},
		},
		Histograms: []model.Histogram{
			{
				Name: "rocksdb.db.get.micros",
				P50:  1.2, P95: 4, P99: 5, P100: 9,
				Count: 100, Sum: 312, Average: 3.12,
				IntervalCount: 100, IntervalSum: 312,
				NumDumps: 1, LastTime: t2,
			},
			{Name: "rocksdb.empty.micros"},
		},
		ColumnFamilies: []model.ColumnFamilyStats{
			{Name: "default", FlushesStarted: 3, FlushesFinished: 3, SizeBytes: 4831838208, NumFiles: 12},
		},
		Compactions: []model.CompactionRecord{
			{
				CF: "default", JobID: 13, State: model.CompactionFinished,
				StartTime: t1, FinishTime: t2,
				InputLevel: 1, OutputLevel: 2, InputFileCount: 6, OutputFileCount: 4,
				Score: 1.63, BytesWritten: 88888888, DurationMicros: 5000000,
				RecordsIn: 1000, RecordsDropped: 100,
			},
			{CF: "default", JobID: 20, State: model.CompactionPending, StartTime: t2, Score: 2},
		},
		TotalEntries: 42,
		TotalLines:   120,
	}
}

func TestWriteJSONDeterministic(t *testing.T) {
	snap := sampleSnapshot(t)

	var a, b bytes.Buffer
	if err := WriteJSON(&a, snap); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := WriteJSON(&b, snap); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("repeated renders differ")
	}
	if !strings.Contains(a.String(), "rocksdb.db.get.micros") {
		t.Fatal("histogram missing from JSON")
	}
}

func TestWriteConsole(t *testing.T) {
	snap := sampleSnapshot(t)

	var buf bytes.Buffer
	if err := WriteConsole(&buf, snap); err != nil {
		t.Fatalf("WriteConsole: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Parsing of: LOG",
		"SpeeDB 2.2.1",
		"2 (1 pending)",
		"default",
		"4.50 GB",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("console output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteConsoleUnparsedUnits(t *testing.T) {
	// Line and entry totals use their own units and never mix: 7 lines
	// grouped into 5 entries, 3 of them retained.
	snap := &model.Snapshot{
		Metadata:             model.FileMetadata{Path: "LOG"},
		TotalLines:           40,
		UnrecognizedCount:    7,
		UnrecognizedEntries:  5,
		UnrecognizedSample:   []string{"a", "b", "c"},
		UnrecognizedOverflow: 2,
	}

	var buf bytes.Buffer
	if err := WriteConsole(&buf, snap); err != nil {
		t.Fatalf("WriteConsole: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "Unparsed Lines") || !strings.Contains(out, "7 of 40") {
		t.Fatalf("console output missing line totals:\n%s", out)
	}
	if !strings.Contains(out, "Unparsed Entries") || !strings.Contains(out, "5 (3 retained, +2 more)") {
		t.Fatalf("console output missing entry totals:\n%s", out)
	}
}

func TestWriteCountersCSV(t *testing.T) {
	snap := sampleSnapshot(t)

	var buf bytes.Buffer
	wrote, err := WriteCountersCSV(&buf, snap)
	if err != nil {
		t.Fatalf("WriteCountersCSV: %v", err)
	}
	if !wrote {
		t.Fatal("wrote = false")
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 dump times", len(rows))
	}

	// All-zero counters are left out.
	header := rows[0]
	if len(header) != 3 || header[1] != "rocksdb.block.cache.miss" || header[2] != "rocksdb.block.cache.hit" {
		t.Fatalf("header = %v", header)
	}

	// First dump time: hit counter had no value yet, zero-filled.
	if rows[1][1] != "61" || rows[1][2] != "0" {
		t.Fatalf("row 1 = %v", rows[1])
	}
	if rows[2][1] != "100" || rows[2][2] != "14" {
		t.Fatalf("row 2 = %v", rows[2])
	}
}

func TestWriteCountersCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	wrote, err := WriteCountersCSV(&buf, &model.Snapshot{})
	if err != nil {
		t.Fatalf("WriteCountersCSV: %v", err)
	}
	if wrote || buf.Len() != 0 {
		t.Fatalf("wrote = %v, len = %d; want no output", wrote, buf.Len())
	}
}

func TestWriteHistogramsCSV(t *testing.T) {
	snap := sampleSnapshot(t)

	var buf bytes.Buffer
	wrote, err := WriteHistogramsCSV(&buf, snap)
	if err != nil {
		t.Fatalf("WriteHistogramsCSV: %v", err)
	}
	if !wrote {
		t.Fatal("wrote = false")
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	// Empty histograms are left out.
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[1][0] != "rocksdb.db.get.micros" {
		t.Fatalf("row = %v", rows[1])
	}
	if rows[1][8] != "3.12" {
		t.Fatalf("average cell = %q, want 3.12", rows[1][8])
	}
}

func TestWriteCompactionsCSV(t *testing.T) {
	snap := sampleSnapshot(t)

	var buf bytes.Buffer
	wrote, err := WriteCompactionsCSV(&buf, snap)
	if err != nil {
		t.Fatalf("WriteCompactionsCSV: %v", err)
	}
	if !wrote {
		t.Fatal("wrote = false")
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	finished := rows[1]
	if finished[2] != "finished" || finished[3] != "false" {
		t.Fatalf("finished row = %v", finished)
	}
	pending := rows[2]
	if pending[2] != "pending" || pending[5] != "" {
		t.Fatalf("pending row = %v", pending)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.00 KB"},
		{4831838208, "4.50 GB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Fatalf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
