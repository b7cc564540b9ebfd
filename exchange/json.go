package exchange

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kasuganosora/gjtracker/tracker"
)

// WriteJSON writes the full state as indented JSON.
func WriteJSON(w io.Writer, st *tracker.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}

// ReadJSON decodes a full-state document. Unknown fields are ignored.
func ReadJSON(r io.Reader) (*tracker.State, error) {
	st := tracker.NewState()
	if err := json.NewDecoder(r).Decode(st); err != nil {
		return nil, fmt.Errorf("json state: %w", err)
	}
	return st, nil
}
