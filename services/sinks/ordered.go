package sinks

import (
	"sort"
	"sync"

	"github.com/novonordisk-research/vcf-parser/models"
)

// Ordered re-sequences chunks so the inner sink sees them in input order.
// Every sequence number from `first` on must be written exactly once,
// empty chunks included. A writer more than `window` ahead of the oldest
// outstanding chunk blocks until the gap closes.
type Ordered struct {
	mu      sync.Mutex
	cond    *sync.Cond
	inner   Sink
	next    int64
	window  int64
	pending map[int64][]byte
	err     error
}

func NewOrdered(inner Sink, first int64, window int) *Ordered {
	if window < 1 {
		window = 1
	}
	o := &Ordered{
		inner:   inner,
		next:    first,
		window:  int64(window),
		pending: map[int64][]byte{},
	}
	o.cond = sync.NewCond(&o.mu)
	return o
}

func (o *Ordered) Write(chunk models.OutputChunk) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for o.err == nil && chunk.Seq >= o.next+o.window {
		o.cond.Wait()
	}
	if o.err != nil {
		return o.err
	}

	o.pending[chunk.Seq] = chunk.Data
	advanced := false
	for {
		data, ok := o.pending[o.next]
		if !ok {
			break
		}
		delete(o.pending, o.next)
		if err := o.inner.Write(models.OutputChunk{Seq: o.next, Data: data}); err != nil {
			o.err = err
			o.cond.Broadcast()
			return err
		}
		o.next++
		advanced = true
	}
	if advanced {
		o.cond.Broadcast()
	}
	return nil
}

// Close forwards anything still pending, in sequence order, without
// closing the inner sink.
func (o *Ordered) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.err != nil {
		return o.err
	}

	seqs := make([]int64, 0, len(o.pending))
	for seq := range o.pending {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	for _, seq := range seqs {
		if err := o.inner.Write(models.OutputChunk{Seq: seq, Data: o.pending[seq]}); err != nil {
			o.err = err
			break
		}
		delete(o.pending, seq)
	}
	o.cond.Broadcast()
	return o.err
}
