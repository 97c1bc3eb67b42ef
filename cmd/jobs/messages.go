package main

import (
	"github.com/rxtech-lab/argo-replay/internal/ledger"
	"github.com/rxtech-lab/argo-replay/internal/scheduler"
)

// CountsLoadedMsg carries the number of recorded jobs per status.
type CountsLoadedMsg struct {
	Counts map[scheduler.Status]int
}

// EntriesLoadedMsg carries ledger rows for the selected status.
type EntriesLoadedMsg struct {
	Entries []ledger.Entry
}

// LoadErrorMsg indicates the ledger could not be read.
type LoadErrorMsg struct {
	Err error
}
