package ingest

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/udi-speedb/log-parser/internal/engine"
	"github.com/udi-speedb/log-parser/internal/extract"
	"github.com/udi-speedb/log-parser/internal/logfile"
	"github.com/udi-speedb/log-parser/internal/logparse"
	"github.com/udi-speedb/log-parser/internal/model"
)

// Options tunes one parse run.
type Options struct {
	// MaxLines bounds how many physical lines are read (0 = default).
	MaxLines int

	// UnrecognizedCap bounds verbatim retention of unparsed entries
	// (0 = engine default).
	UnrecognizedCap int

	// CounterKinds declares delta-accumulating counters by name.
	CounterKinds map[string]model.CounterKind
}

// Processor routes classified log entries into the aggregation engine.
type Processor struct {
	eng *engine.Engine
}

// NewProcessor wires a processor to an open engine.
func NewProcessor(eng *engine.Engine) *Processor {
	return &Processor{eng: eng}
}

// ProcessEntry classifies and extracts one entry, then folds it into the
// engine. Malformed events are downgraded to unrecognized with a recorded
// issue; only engine misuse propagates.
func (p *Processor) ProcessEntry(e *model.LogEntry) error {
	m := logparse.Classify(e)

	ev, err := extract.Extract(e, m)
	if err != nil {
		var malformed *extract.MalformedEventError
		if !errors.As(err, &malformed) {
			return err
		}
		logrus.WithField("line", e.LineNum).Debugf("downgrading entry: %v", malformed)
		p.eng.NoteIssue("%v", malformed)
		ev, _ = extract.Extract(e, logparse.Match{Kind: model.KindUnrecognized})
	}

	return p.eng.Ingest(ev)
}

// ParseFile runs the whole pipeline over one log file and returns the
// frozen snapshot. Parse-level anomalies are annotated on the snapshot;
// the only errors returned are an unreadable file and engine misuse.
func ParseFile(path string, opts Options) (*model.Snapshot, error) {
	res, err := logfile.Read(path, logfile.Options{MaxLines: opts.MaxLines})
	if err != nil {
		return nil, err
	}

	eng := engine.New(engine.Options{
		FilePath:        path,
		UnrecognizedCap: opts.UnrecognizedCap,
		CounterKinds:    opts.CounterKinds,
	})
	if res.Truncated {
		eng.NoteIssue("input exceeded the line limit; trailing lines were not parsed")
	}

	proc := NewProcessor(eng)
	for i := range res.Entries {
		if err := proc.ProcessEntry(&res.Entries[i]); err != nil {
			return nil, err
		}
	}

	return eng.Finalize()
}
