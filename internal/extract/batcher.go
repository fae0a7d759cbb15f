package extract

import (
	"fmt"

	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/types"
)

// Batch is one self-contained output unit.
type Batch struct {
	// Index is 1-based.
	Index int

	// TotalTickets is the document-wide ticket count, equal on every batch.
	TotalTickets int

	// Tickets is the number of ticket elements in this window, including
	// any skipped ones.
	Tickets int

	// Offset is the document-wide index of the window's first ticket.
	Offset int

	Bundle *types.TableBundle
	Stats  WalkStats
}

// Batcher yields a document's batches in order. Usage follows the scanner
// pattern:
//
//	b := doc.Batches(200)
//	for b.Next() {
//	    batch := b.Batch()
//	}
//	if err := b.Err(); err != nil { ... }
type Batcher struct {
	doc    *Document
	size   int
	offset int
	index  int
	cur    Batch
	err    error
}

func newBatcher(d *Document, size int) *Batcher {
	b := &Batcher{doc: d, size: size}
	if size < 1 {
		b.err = fmt.Errorf("%w: %d", ErrInvalidBatchSize, size)
	}
	return b
}

// Next prepares the next batch. It returns false when the tickets are
// exhausted or the batcher was created with an invalid size.
func (b *Batcher) Next() bool {
	if b.err != nil {
		b.doc.state = StateFailed
		return false
	}
	total := len(b.doc.tickets)
	if b.offset >= total {
		b.doc.state = StateDone
		return false
	}

	end := b.offset + b.size
	if end > total {
		end = total
	}
	window := b.doc.tickets[b.offset:end]
	b.index++

	bundle, stats := b.doc.walker.Walk(window, b.offset)
	if b.index == 1 {
		for _, t := range b.doc.docTables.Tables() {
			bundle.Put(t.Clone())
		}
		stats.merge(b.doc.docStats)
	}
	if b.doc.storeInfo != nil {
		bundle.Put(b.doc.storeInfo.Clone())
	}

	b.cur = Batch{
		Index:        b.index,
		TotalTickets: total,
		Tickets:      len(window),
		Offset:       b.offset,
		Bundle:       bundle,
		Stats:        stats,
	}
	b.offset = end
	b.doc.state = StateBatchProduced
	return true
}

// Batch returns the batch prepared by the last successful Next.
func (b *Batcher) Batch() Batch {
	return b.cur
}

// Err returns the error that stopped the sequence, if any.
func (b *Batcher) Err() error {
	return b.err
}

// Progress is the fraction of the document covered once batch index of the
// given size has been consumed, held below 1 until the sequence ends.
func Progress(index, size, total int) float64 {
	if total <= 0 {
		return 0.99
	}
	p := float64(index*size) / float64(total)
	if p > 0.99 {
		p = 0.99
	}
	return p
}
