package extract

import (
	"testing"
	"time"

	"github.com/udi-speedb/log-parser/internal/model"
)

func TestParseStatsDump(t *testing.T) {
	e := entry(t, "2023/01/04-09:30:00.000000", "------- DUMPING STATS -------",
		"** DB Stats **",
		"Uptime(secs): 3600.1 total, 600.0 interval",
		"Cumulative writes: 512K writes, 512K keys",
		"Cumulative stall: 00:01:30.250 H:M:S, 2.5 percent",
		"Interval stall: 00:00:10.000 H:M:S, 1.7 percent",
		"** Compaction Stats [default] **",
		"Level    Files   Size     Score Read(GB)",
		"----------------------------------------",
		"  L0      2/0    64.00 MB   0.8      0.0",
		"  L1      4/0   200.00 MB   0.9      1.2",
		"  Sum    12/0     4.50 GB   0.0      1.2",
		"** Compaction Stats [cf1] **",
		"Level    Files   Size     Score Read(GB)",
		"----------------------------------------",
		"  Sum     3/0   100.00 MB   0.0      0.0")

	ev := classifyAndExtract(t, e)
	if ev.Kind != model.KindStatsDump {
		t.Fatalf("Kind = %s", ev.Kind)
	}
	info := ev.StatsDump
	if info == nil {
		t.Fatal("StatsDump = nil")
	}

	if info.UptimeTotalSec != 3600.1 || info.UptimeIntervalSec != 600.0 {
		t.Fatalf("uptime = %v / %v", info.UptimeTotalSec, info.UptimeIntervalSec)
	}
	wantStall := time.Minute + 30*time.Second + 250*time.Millisecond
	if info.CumulativeStall != wantStall {
		t.Fatalf("CumulativeStall = %v, want %v", info.CumulativeStall, wantStall)
	}
	if info.CumulativeStallPercent != 2.5 {
		t.Fatalf("CumulativeStallPercent = %v", info.CumulativeStallPercent)
	}
	if info.IntervalStall != 10*time.Second || info.IntervalStallPercent != 1.7 {
		t.Fatalf("interval stall = %v / %v", info.IntervalStall, info.IntervalStallPercent)
	}

	if len(info.CFLevels) != 2 {
		t.Fatalf("CFLevels = %+v, want 2 entries", info.CFLevels)
	}
	def := info.CFLevels[0]
	if def.CF != "default" || def.NumFiles != 12 {
		t.Fatalf("default sum = %+v", def)
	}
	if def.SizeBytes != int64(4.5*float64(1<<30)) {
		t.Fatalf("SizeBytes = %d", def.SizeBytes)
	}
	if info.CFLevels[1].CF != "cf1" || info.CFLevels[1].NumFiles != 3 {
		t.Fatalf("cf1 sum = %+v", info.CFLevels[1])
	}
	if info.Truncated {
		t.Fatal("Truncated = true, want false")
	}
}

func TestParseStatsDumpTruncatedTable(t *testing.T) {
	e := entry(t, "2023/01/04-09:30:00.000000", "------- DUMPING STATS -------",
		"** Compaction Stats [default] **",
		"Level    Files   Size     Score",
		"  L0      2/0    64.00 MB   0.8")

	ev := classifyAndExtract(t, e)
	if !ev.StatsDump.Truncated {
		t.Fatal("Truncated = false, want true for table without Sum row")
	}
}

func TestParseStatistics(t *testing.T) {
	e := entry(t, "2023/01/04-09:40:00.000000", "STATISTICS:",
		"rocksdb.block.cache.miss COUNT : 61",
		"rocksdb.block.cache.hit COUNT : 14",
		"rocksdb.db.get.micros P50 : 1.20 P95 : 4.00 P99 : 5.00 P100 : 9.00 COUNT : 100 SUM : 312")

	ev := classifyAndExtract(t, e)
	if ev.Kind != model.KindHistogramDump {
		t.Fatalf("Kind = %s", ev.Kind)
	}
	info := ev.HistogramDump
	if info == nil {
		t.Fatal("HistogramDump = nil")
	}

	if len(info.Counters) != 2 {
		t.Fatalf("Counters = %+v", info.Counters)
	}
	if info.Counters[0] != (model.CounterDump{Name: "rocksdb.block.cache.miss", Value: 61}) {
		t.Fatalf("counter[0] = %+v", info.Counters[0])
	}

	if len(info.Histograms) != 1 {
		t.Fatalf("Histograms = %+v", info.Histograms)
	}
	h := info.Histograms[0]
	if h.Name != "rocksdb.db.get.micros" || h.P50 != 1.2 || h.P100 != 9 {
		t.Fatalf("histogram = %+v", h)
	}
	if h.Count != 100 || h.Sum != 312 {
		t.Fatalf("histogram = %+v", h)
	}
	if info.Truncated {
		t.Fatal("Truncated = true, want false")
	}
}

func TestParseStatisticsTruncatedTail(t *testing.T) {
	e := entry(t, "2023/01/04-09:40:00.000000", "STATISTICS:",
		"rocksdb.block.cache.miss COUNT : 61",
		"rocksdb.block.cache.hit COUNT")

	ev := classifyAndExtract(t, e)
	info := ev.HistogramDump
	if len(info.Counters) != 1 {
		t.Fatalf("Counters = %+v", info.Counters)
	}
	if !info.Truncated {
		t.Fatal("Truncated = false, want true for cut-off final line")
	}
}
