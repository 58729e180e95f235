package logfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/udi-speedb/log-parser/internal/model"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "LOG")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestReadGroupsMultiLineEntries(t *testing.T) {
	content := "2023/01/04-08:54:59.130735 7f4a9fdff700 RocksDB version: 7.7.3\n" +
		"2023/01/04-08:55:00.000001 7f4a9fdff700 STATISTICS:\n" +
		"rocksdb.block.cache.miss COUNT : 61\n" +
		"rocksdb.block.cache.hit COUNT : 14\n" +
		"2023/01/04-08:55:01.000002 7f4a9fdff700 Compaction nothing to do\n"

	res, err := Read(writeLog(t, content), Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(res.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(res.Entries))
	}
	if res.TotalLines != 5 {
		t.Fatalf("TotalLines = %d, want 5", res.TotalLines)
	}
	if res.NonBlankLines != 5 {
		t.Fatalf("NonBlankLines = %d, want 5", res.NonBlankLines)
	}

	stats := res.Entries[1]
	if stats.Msg != "STATISTICS:" {
		t.Fatalf("Msg = %q, want STATISTICS:", stats.Msg)
	}
	if stats.NumLines() != 3 {
		t.Fatalf("NumLines = %d, want 3", stats.NumLines())
	}
	if stats.LineNum != 2 {
		t.Fatalf("LineNum = %d, want 2", stats.LineNum)
	}
	if stats.Context != "7f4a9fdff700" {
		t.Fatalf("Context = %q", stats.Context)
	}
}

func TestReadParsesEntryHeader(t *testing.T) {
	content := "2023/01/04-09:02:00.130735 7f4a9fdff700 [WARN] [/column_family.cc:932] " +
		"[default] Stalling writes because we have 3 immutable memtables\n"

	res, err := Read(writeLog(t, content), Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(res.Entries))
	}

	e := res.Entries[0]
	if e.Level != model.LevelWarn {
		t.Fatalf("Level = %q, want WARN", e.Level)
	}
	if e.CodePos != "[/column_family.cc:932]" {
		t.Fatalf("CodePos = %q", e.CodePos)
	}
	if e.Msg != "[default] Stalling writes because we have 3 immutable memtables" {
		t.Fatalf("Msg = %q", e.Msg)
	}
	want, err := time.Parse(model.TimestampLayout, "2023/01/04-09:02:00.130735")
	if err != nil {
		t.Fatalf("time.Parse: %v", err)
	}
	if !e.Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", e.Time, want)
	}
}

func TestReadOriginalLogTime(t *testing.T) {
	content := "2023/01/04-09:02:01.000000 7f4a9fdff700 (Original Log Time 2023/01/04-09:02:00.999999) " +
		"[default] Level summary: files[2 1 0]\n"

	res, err := Read(writeLog(t, content), Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	e := res.Entries[0]
	if e.OrigTime.IsZero() {
		t.Fatal("OrigTime not parsed")
	}
	if e.Msg != "[default] Level summary: files[2 1 0]" {
		t.Fatalf("Msg = %q", e.Msg)
	}
}

func TestReadToleratesCRLFAndBlanks(t *testing.T) {
	content := "2023/01/04-08:54:59.130735 7f4a9fdff700 first\r\n" +
		"continuation\r\n" +
		"\r\n" +
		"2023/01/04-08:55:00.130735 7f4a9fdff700 second\n" +
		"\n" +
		"\n"

	res, err := Read(writeLog(t, content), Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(res.Entries))
	}
	if got := res.Entries[0].MsgLines; len(got) != 2 || got[1] != "continuation" {
		t.Fatalf("MsgLines = %q", got)
	}
	if res.NonBlankLines != 3 {
		t.Fatalf("NonBlankLines = %d, want 3", res.NonBlankLines)
	}
}

func TestReadOrphanLeadingLines(t *testing.T) {
	content := "garbage before any entry\n" +
		"2023/01/04-08:54:59.130735 7f4a9fdff700 first\n"

	res, err := Read(writeLog(t, content), Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(res.Entries))
	}
	orphan := res.Entries[0]
	if !orphan.Time.IsZero() {
		t.Fatalf("orphan Time = %v, want zero", orphan.Time)
	}
	if orphan.Msg != "garbage before any entry" {
		t.Fatalf("orphan Msg = %q", orphan.Msg)
	}
}

func TestReadMaxLines(t *testing.T) {
	content := "2023/01/04-08:54:59.130735 7f4a9fdff700 one\n" +
		"2023/01/04-08:55:00.130735 7f4a9fdff700 two\n" +
		"2023/01/04-08:55:01.130735 7f4a9fdff700 three\n"

	res, err := Read(writeLog(t, content), Options{MaxLines: 2})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !res.Truncated {
		t.Fatal("Truncated = false, want true")
	}
	if len(res.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(res.Entries))
	}
}

func TestReadEmptyFile(t *testing.T) {
	res, err := Read(writeLog(t, ""), Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(res.Entries) != 0 || res.TotalLines != 0 {
		t.Fatalf("entries=%d lines=%d, want 0/0", len(res.Entries), res.TotalLines)
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent"), Options{})
	var unreadable *UnreadableFileError
	if !errors.As(err, &unreadable) {
		t.Fatalf("err = %v, want UnreadableFileError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err does not unwrap to ErrNotExist: %v", err)
	}
}
