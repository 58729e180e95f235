package render

import (
	"encoding/json"
	"io"

	"github.com/udi-speedb/log-parser/internal/model"
)

// WriteJSON renders the full snapshot as indented JSON. The snapshot's
// slices are already deterministically ordered, so repeated runs over the
// same input produce byte-identical documents.
func WriteJSON(w io.Writer, snap *model.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	return enc.Encode(snap)
}
