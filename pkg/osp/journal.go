// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

package osp

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// JournalEntry is one recorded exchange. Fields use integer CBOR keys to
// keep capture files compact.
type JournalEntry struct {
	At  time.Time `cbor:"1,keyasint"`
	Op  string    `cbor:"2,keyasint"`
	TX  []byte    `cbor:"3,keyasint,omitempty"`
	RX  []byte    `cbor:"4,keyasint,omitempty"`
	Err string    `cbor:"5,keyasint,omitempty"`
}

// Journal records every exchange a Client runs, independent of the trace
// log level. Safe for concurrent use.
type Journal struct {
	mu      sync.Mutex
	entries []JournalEntry
}

func NewJournal() *Journal {
	return &Journal{}
}

// Record appends one exchange. The byte slices are copied; callers may
// reuse their buffers.
func (j *Journal) Record(op string, tx, rx []byte, err error) {
	e := JournalEntry{At: time.Now(), Op: op}
	if tx != nil {
		e.TX = append([]byte(nil), tx...)
	}
	if rx != nil {
		e.RX = append([]byte(nil), rx...)
	}
	if err != nil {
		e.Err = err.Error()
	}
	j.mu.Lock()
	j.entries = append(j.entries, e)
	j.mu.Unlock()
}

// Len returns the number of recorded exchanges.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Entries returns a copy of the recorded exchanges.
func (j *Journal) Entries() []JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]JournalEntry(nil), j.entries...)
}

// Save writes the journal as a single CBOR array.
func (j *Journal) Save(w io.Writer) error {
	data, err := cbor.Marshal(j.Entries())
	if err != nil {
		return fmt.Errorf("failed to encode journal: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}
	return nil
}

// LoadJournal reads a CBOR capture file written by Save.
func LoadJournal(r io.Reader) ([]JournalEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	var entries []JournalEntry
	if err := cbor.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode journal: %w", err)
	}
	return entries, nil
}
