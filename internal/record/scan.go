package record

// Scan is a cursor over a table with an optional predicate expression. A
// nil Cond matches every live record.
type Scan struct {
	table        *Table
	cond         Expr
	curPage      int
	curSlot      int
	scannedCount int
}

// StartScan captures cond and the initial cursor position (page 1, slot 0).
func StartScan(t *Table, cond Expr) *Scan {
	return &Scan{
		table:   t,
		cond:    cond,
		curPage: 1,
		curSlot: 0,
	}
}

// Next advances the scan to the next live record matching cond, in
// (page, slot) lexicographic order. Returns ErrNoMoreTuples once a full
// pass over the table's live tuples completes without a further match.
func (sc *Scan) Next(rec *Record) error {
	t := sc.table
	if err := t.ensureOpen(); err != nil {
		return err
	}

	for {
		if sc.scannedCount >= t.tupleCount {
			return ErrNoMoreTuples
		}
		if sc.curPage >= t.file.TotalNumPages() {
			return ErrNoMoreTuples
		}

		h, err := t.pool.Pin(sc.curPage)
		if err != nil {
			return err
		}

		off := t.slotOffset(sc.curSlot)
		live := h.Data()[off] == tombstoneLive

		var candidate *Record
		if live {
			candidate = &Record{
				RID:  RID{Page: sc.curPage, Slot: sc.curSlot},
				Data: append([]byte(nil), h.Data()[off:off+t.recordSize]...),
			}
		}

		if err := t.pool.Unpin(h); err != nil {
			return err
		}

		sc.advance()

		if !live {
			continue
		}
		sc.scannedCount++

		matched, err := sc.matches(candidate)
		if err != nil {
			return err
		}
		if matched {
			rec.RID = candidate.RID
			rec.Data = candidate.Data
			return nil
		}
	}
}

func (sc *Scan) advance() {
	sc.curSlot++
	if sc.curSlot >= sc.table.slotsPerPage {
		sc.curSlot = 0
		sc.curPage++
	}
}

func (sc *Scan) matches(rec *Record) (bool, error) {
	if sc.cond == nil {
		return true, nil
	}
	v, err := sc.cond.Eval(sc.table.schema, rec)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, ErrNotFound
	}
	return b, nil
}

// CloseScan releases the scan's state. It is a no-op beyond letting the
// Scan value be garbage collected; kept for parity with the spec's
// startScan/next/closeScan API.
func CloseScan(sc *Scan) error {
	return nil
}
