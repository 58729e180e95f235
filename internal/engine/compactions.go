package engine

import "github.com/udi-speedb/log-parser/internal/model"

// Compaction records are keyed by (column family, job id). Job ids are
// unique within one database process run, so the pair is unique within one
// log file.
type compactionKey struct {
	cf    string
	jobID int
}

func (e *Engine) applyCompactionStart(ev model.Event) {
	info := ev.CompactionStart
	if info == nil {
		return
	}

	cf := e.cf(ev.CF)
	cf.CompactionsStarted++

	key := compactionKey{cf: cf.Name, jobID: info.JobID}
	if existing, ok := e.compactions[key]; ok && existing.State == model.CompactionPending {
		// A repeated start without a finish: a logged retry or a gap in
		// the file. The most recent start wins.
		e.NoteIssue("duplicate compaction start for cf %q job %d at line %d, keeping the later one",
			cf.Name, info.JobID, ev.LineNum)
	}

	e.compactions[key] = &model.CompactionRecord{
		CF:             cf.Name,
		JobID:          info.JobID,
		State:          model.CompactionPending,
		StartTime:      ev.Time,
		InputLevel:     info.InputLevel,
		OutputLevel:    info.OutputLevel,
		InputFileCount: info.InputFileCount,
		Score:          info.Score,
	}
}

func (e *Engine) applyCompactionFinish(ev model.Event) {
	info := ev.CompactionFinish
	if info == nil {
		return
	}

	cf := e.cf(ev.CF)
	cf.CompactionsFinished++

	key := compactionKey{cf: cf.Name, jobID: info.JobID}
	rec, ok := e.compactions[key]
	if !ok {
		// Finish with no start in the file: the start line fell outside
		// the file's window. Record it anyway, flagged.
		rec = &model.CompactionRecord{
			CF:           cf.Name,
			JobID:        info.JobID,
			StartUnknown: true,
			OutputLevel:  info.OutputLevel,
		}
		e.compactions[key] = rec
		e.NoteIssue("compaction finish without start for cf %q job %d at line %d",
			cf.Name, info.JobID, ev.LineNum)
	}

	rec.State = model.CompactionFinished
	rec.FinishTime = ev.Time
	rec.OutputFileCount = info.OutputFileCount
	rec.BytesWritten = info.BytesWritten
	rec.DurationMicros = info.DurationMicros
	rec.RecordsIn = info.RecordsIn
	rec.RecordsDropped = info.RecordsDropped
	if info.OutputLevel > 0 {
		rec.OutputLevel = info.OutputLevel
	}
}
