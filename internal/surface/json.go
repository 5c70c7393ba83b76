package surface

import (
	"encoding/json"
	"io"
)

// JSONRenderer marshals a Ranking to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(w io.Writer, ranking *Ranking) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ranking)
}
