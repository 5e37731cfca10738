package drivethru

import (
	"io"

	"github.com/davecgh/go-spew/spew"
)

// Fdump writes a deep, typed dump of v to w.
func Fdump(w io.Writer, v ...any) {
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	cfg.Fdump(w, v...)
}
