package extract

import (
	"encoding/json"
	"strings"

	"github.com/udi-speedb/log-parser/internal/model"
)

const (
	eventFlushStarted  = "flush_started"
	eventFlushFinished = "flush_finished"
)

// eventPayload is the superset of EVENT_LOG_v1 JSON fields the extractors
// consume. Unknown fields are ignored.
type eventPayload struct {
	TimeMicros int64  `json:"time_micros"`
	Job        int    `json:"job"`
	Event      string `json:"event"`
	CFName     string `json:"cf_name"`

	// flush_started / flush_finished
	FlushReason   string `json:"flush_reason"`
	NumMemtables  int    `json:"num_memtables"`
	TotalDataSize int64  `json:"total_data_size"`

	// compaction_finished
	OutputLevel          int   `json:"output_level"`
	NumOutputFiles       int   `json:"num_output_files"`
	TotalOutputSize      int64 `json:"total_output_size"`
	CompactionTimeMicros int64 `json:"compaction_time_micros"`
	NumInputRecords      int64 `json:"num_input_records"`
	NumOutputRecords     int64 `json:"num_output_records"`
}

// decodeEventPayload parses the JSON document embedded in an EVENT_LOG_v1
// entry. The document starts at the first '{' of the message body.
func decodeEventPayload(e *model.LogEntry) (*eventPayload, error) {
	body := strings.Join(e.MsgLines, "\n")
	start := strings.Index(body, "{")
	if start < 0 {
		return nil, &MalformedEventError{Kind: model.KindOtherEvent, LineNum: e.LineNum, Reason: "no JSON document"}
	}

	var payload eventPayload
	if err := json.Unmarshal([]byte(body[start:]), &payload); err != nil {
		return nil, &MalformedEventError{Kind: model.KindOtherEvent, LineNum: e.LineNum, Reason: "bad JSON: " + err.Error()}
	}
	if payload.Event == "" {
		return nil, &MalformedEventError{Kind: model.KindOtherEvent, LineNum: e.LineNum, Reason: "event type missing"}
	}
	return &payload, nil
}
