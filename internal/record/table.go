package record

import (
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/atomic"

	"github.com/riverdb/riverdb/internal/bufferpool"
	"github.com/riverdb/riverdb/internal/pagestore"
)

var (
	// ErrNotFound is returned when a record or key is absent or tombstoned.
	ErrNotFound = errors.New("record: not found")

	// ErrNoMoreTuples is returned by Scan.Next when the scan is exhausted.
	// It is a distinct sentinel, not a failure, per spec §7.
	ErrNoMoreTuples = errors.New("record: no more tuples")

	// ErrTableClosed is returned by any operation on a closed Table.
	ErrTableClosed = errors.New("record: table is closed")
)

const headerPage = 0

// Table is the record manager's handle on one open table: its schema, a
// dedicated buffer pool bound to the table's page file, and bookkeeping
// metadata (tuple count, first page that may hold a free slot).
type Table struct {
	name          string
	schema        Schema
	file          *pagestore.File
	pool          *bufferpool.Pool
	recordSize    int
	slotsPerPage  int
	tupleCount    int
	firstFreePage int
	closed        atomic.Bool
}

// CreateTable creates name's page file, writes the page-0 header encoding
// schema, and opens it with a frameCount-frame, policy buffer pool.
func CreateTable(name string, schema Schema, frameCount int, policy bufferpool.Policy) (*Table, error) {
	if err := pagestore.CreatePageFile(name); err != nil {
		return nil, err
	}

	file, err := pagestore.OpenPageFile(name)
	if err != nil {
		return nil, err
	}

	pool, err := bufferpool.Init(file, frameCount, policy)
	if err != nil {
		_ = file.ClosePageFile()
		return nil, err
	}

	t := &Table{
		name:          name,
		schema:        schema,
		file:          file,
		pool:          pool,
		recordSize:    schema.RecordSize(),
		slotsPerPage:  pagestore.PageSize / schema.RecordSize(),
		tupleCount:    0,
		firstFreePage: 1,
	}

	if err := t.writeHeader(); err != nil {
		return nil, err
	}
	return t, nil
}

// OpenTable opens an existing table's page file and reconstructs its schema
// and metadata from the page-0 header.
func OpenTable(name string, frameCount int, policy bufferpool.Policy) (*Table, error) {
	file, err := pagestore.OpenPageFile(name)
	if err != nil {
		return nil, err
	}

	pool, err := bufferpool.Init(file, frameCount, policy)
	if err != nil {
		_ = file.ClosePageFile()
		return nil, err
	}

	h, err := pool.Pin(headerPage)
	if err != nil {
		_ = file.ClosePageFile()
		return nil, err
	}
	schema, tupleCount, firstFreePage, err := decodeHeader(h.Data())
	_ = pool.Unpin(h)
	if err != nil {
		_ = file.ClosePageFile()
		return nil, err
	}

	return &Table{
		name:          name,
		schema:        schema,
		file:          file,
		pool:          pool,
		recordSize:    schema.RecordSize(),
		slotsPerPage:  pagestore.PageSize / schema.RecordSize(),
		tupleCount:    tupleCount,
		firstFreePage: firstFreePage,
	}, nil
}

// DeleteTable removes a closed table's page file.
func DeleteTable(name string) error {
	return pagestore.DestroyPageFile(name)
}

// CloseTable writes the current header, flushes every dirty frame and shuts
// the table's buffer pool and file down.
func (t *Table) CloseTable() error {
	if t.closed.Swap(true) {
		return nil
	}
	if err := t.writeHeader(); err != nil {
		return err
	}
	if err := t.pool.Shutdown(); err != nil {
		return err
	}
	return t.file.ClosePageFile()
}

// Schema returns the table's schema.
func (t *Table) Schema() Schema { return t.schema }

// GetNumTuples returns the current live tuple count.
func (t *Table) GetNumTuples() int { return t.tupleCount }

// GetRecordSize returns the packed size of one record, tombstone included.
func (t *Table) GetRecordSize() int { return t.recordSize }

func (t *Table) writeHeader() error {
	h, err := t.pool.Pin(headerPage)
	if err != nil {
		return err
	}
	copy(h.Data(), encodeHeader(t.schema, t.tupleCount, t.firstFreePage))
	if err := t.pool.MarkDirty(h); err != nil {
		_ = t.pool.Unpin(h)
		return err
	}
	return t.pool.Unpin(h)
}

func (t *Table) ensureOpen() error {
	if t.closed.Load() {
		return ErrTableClosed
	}
	return nil
}

func (t *Table) slotOffset(slot int) int { return slot * t.recordSize }

// InsertRecord finds the first free slot at or after firstFreePage, writes
// rec there, sets rec.RID and increments the tuple count.
func (t *Table) InsertRecord(rec *Record) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}
	if len(rec.Data) != t.recordSize {
		return fmt.Errorf("record: record size mismatch: got %d want %d", len(rec.Data), t.recordSize)
	}

	page := t.firstFreePage
	for {
		if page >= t.file.TotalNumPages() {
			if _, err := t.file.AppendEmptyBlock(); err != nil {
				return err
			}
		}

		h, err := t.pool.Pin(page)
		if err != nil {
			return err
		}

		slot := -1
		for s := 0; s < t.slotsPerPage; s++ {
			off := t.slotOffset(s)
			if h.Data()[off] != tombstoneLive {
				slot = s
				break
			}
		}

		if slot == -1 {
			if err := t.pool.Unpin(h); err != nil {
				return err
			}
			page++
			continue
		}

		off := t.slotOffset(slot)
		copy(h.Data()[off:off+t.recordSize], rec.Data)
		h.Data()[off] = tombstoneLive

		if err := t.pool.MarkDirty(h); err != nil {
			_ = t.pool.Unpin(h)
			return err
		}
		if err := t.pool.Unpin(h); err != nil {
			return err
		}

		rec.RID = RID{Page: page, Slot: slot}
		t.tupleCount++
		slog.Debug("record: inserted", "table", t.name, "rid", rec.RID)
		return nil
	}
}

// DeleteRecord tombstones the slot at rid and updates firstFreePage.
func (t *Table) DeleteRecord(rid RID) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}

	h, err := t.pool.Pin(rid.Page)
	if err != nil {
		return err
	}

	off := t.slotOffset(rid.Slot)
	h.Data()[off] = tombstoneFree

	if err := t.pool.MarkDirty(h); err != nil {
		_ = t.pool.Unpin(h)
		return err
	}
	if err := t.pool.Unpin(h); err != nil {
		return err
	}

	if rid.Page < t.firstFreePage {
		t.firstFreePage = rid.Page
	}
	t.tupleCount--
	return nil
}

// UpdateRecord overwrites the payload at rec.RID in place. The tombstone
// byte and RID are left untouched; updating a record's RID is not allowed.
func (t *Table) UpdateRecord(rec *Record) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}
	if len(rec.Data) != t.recordSize {
		return fmt.Errorf("record: record size mismatch: got %d want %d", len(rec.Data), t.recordSize)
	}

	h, err := t.pool.Pin(rec.RID.Page)
	if err != nil {
		return err
	}

	off := t.slotOffset(rec.RID.Slot)
	if h.Data()[off] != tombstoneLive {
		_ = t.pool.Unpin(h)
		return ErrNotFound
	}

	copy(h.Data()[off+1:off+t.recordSize], rec.Data[1:])

	if err := t.pool.MarkDirty(h); err != nil {
		_ = t.pool.Unpin(h)
		return err
	}
	return t.pool.Unpin(h)
}

// GetRecord reads the record at rid into rec, failing with ErrNotFound if
// the slot is tombstoned.
func (t *Table) GetRecord(rid RID, rec *Record) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}

	h, err := t.pool.Pin(rid.Page)
	if err != nil {
		return err
	}
	defer func() { _ = t.pool.Unpin(h) }()

	off := t.slotOffset(rid.Slot)
	if h.Data()[off] != tombstoneLive {
		return ErrNotFound
	}

	if len(rec.Data) != t.recordSize {
		rec.Data = make([]byte, t.recordSize)
	}
	copy(rec.Data, h.Data()[off:off+t.recordSize])
	rec.RID = rid
	return nil
}
