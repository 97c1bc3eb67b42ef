package writer

import (
	"github.com/rxtech-lab/argo-replay/internal/table"
)

// TableCodec persists time-indexed tables as files.
type TableCodec interface {
	// Encode writes tbl to path, replacing any existing file.
	Encode(path string, tbl *table.Table) error
	// Decode reads the file at path back into a table.
	Decode(path string) (*table.Table, error)
}
