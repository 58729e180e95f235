package logfile

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/udi-speedb/log-parser/internal/logparse"
	"github.com/udi-speedb/log-parser/internal/model"
)

// DefaultMaxLines bounds how much of a pathological input is processed.
const DefaultMaxLines = 5_000_000

// maxLineBytes accommodates the longest known single lines (options dumps).
const maxLineBytes = 1 << 20

// UnreadableFileError reports an input file that could not be opened or
// read. It is the only fatal parse-side failure.
type UnreadableFileError struct {
	Path string
	Err  error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("log file %s is unreadable: %v", e.Path, e.Err)
}

func (e *UnreadableFileError) Unwrap() error { return e.Err }

// Options tunes the reader.
type Options struct {
	// MaxLines stops reading after this many physical lines.
	// Zero means DefaultMaxLines.
	MaxLines int
}

// Result is the outcome of reading one log file.
type Result struct {
	Entries []model.LogEntry

	TotalLines    int // physical lines read
	NonBlankLines int
	Truncated     bool // MaxLines reached before end of file
}

// Read loads the file and groups its physical lines into timestamp-anchored
// entries. Lines that do not start with a timestamp continue the preceding
// entry; orphan lines before the first entry become zero-time entries so
// they surface as unrecognized instead of disappearing. Windows line
// endings, trailing blank lines and a truncated final line are tolerated.
func Read(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &UnreadableFileError{Path: path, Err: err}
	}
	defer f.Close()

	maxLines := opts.MaxLines
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	res := &Result{}
	var current *model.LogEntry

	flush := func() {
		if current != nil {
			trimTrailingBlanks(current)
			res.Entries = append(res.Entries, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNum := 0
	for scanner.Scan() {
		if lineNum >= maxLines {
			res.Truncated = true
			break
		}
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		res.TotalLines = lineNum

		if strings.TrimSpace(line) != "" {
			res.NonBlankLines++
		}

		if logparse.EntryStartRe.MatchString(line) {
			flush()
			entry := parseEntryStart(line)
			entry.Index = len(res.Entries)
			entry.LineNum = lineNum
			current = &entry
			continue
		}

		if current != nil {
			current.MsgLines = append(current.MsgLines, line)
			continue
		}

		// Orphan line before the first timestamped entry.
		if strings.TrimSpace(line) == "" {
			continue
		}
		res.Entries = append(res.Entries, model.LogEntry{
			Index:    len(res.Entries),
			LineNum:  lineNum,
			Msg:      line,
			MsgLines: []string{line},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, &UnreadableFileError{Path: path, Err: err}
	}
	flush()

	return res, nil
}

func parseEntryStart(line string) model.LogEntry {
	g := logparse.HeaderRe.FindStringSubmatch(line)
	if g == nil {
		// EntryStartRe matched, so the permissive header pattern matches
		// too; this branch guards against pattern drift.
		return model.LogEntry{Msg: line, MsgLines: []string{line}, Level: model.LevelInfo}
	}

	ts, _ := time.Parse(model.TimestampLayout, g[1])

	entry := model.LogEntry{
		Time:    ts,
		Context: g[2],
		Level:   model.LevelInfo,
		CodePos: g[5],
	}
	if g[3] != "" {
		if orig, err := time.Parse(model.TimestampLayout, g[3]); err == nil {
			entry.OrigTime = orig
		}
	}
	if g[4] != "" {
		entry.Level = model.Level(g[4])
	}
	entry.Msg = strings.TrimSpace(g[6])
	entry.MsgLines = []string{entry.Msg}
	return entry
}

func trimTrailingBlanks(e *model.LogEntry) {
	for len(e.MsgLines) > 1 && strings.TrimSpace(e.MsgLines[len(e.MsgLines)-1]) == "" {
		e.MsgLines = e.MsgLines[:len(e.MsgLines)-1]
	}
}
