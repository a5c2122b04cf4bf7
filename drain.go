package stages

import (
	"context"
)

// pending holds results refused by the output, oldest first.
// It belongs to a single stage and is only touched by that stage's active run.
type pending[U any] struct {
	items []U
}

func (b *pending[U]) Len() int {
	return len(b.items)
}

func (b *pending[U]) push(v U) {
	b.items = append(b.items, v)
}

// flush places buffered items from the head and stops at the first refusal,
// leaving the refused item and everything after it in place.
func (b *pending[U]) flush(put func(U) bool) {
	var zero U

	n := 0
	for n < len(b.items) && put(b.items[n]) {
		b.items[n] = zero
		n++
	}

	b.items = b.items[n:]
}

// flushAll attempts every buffered item exactly once.
// Refused items stay buffered in their original order for a later run.
func (b *pending[U]) flushAll(put func(U) bool) {
	kept := b.items[:0]
	for _, v := range b.items {
		if !put(v) {
			kept = append(kept, v)
		}
	}

	var zero U
	for i := len(kept); i < len(b.items); i++ {
		b.items[i] = zero
	}

	b.items = kept
}

// drainer moves items from one input to an output through a pending buffer.
type drainer[T, U any] struct {
	put   func(U) bool
	buf   *pending[U]
	apply func(context.Context, T) (U, error)
	// gate, when set, is awaited before every take.
	gate func(context.Context) error
	// placed is called for every item placed on its first attempt.
	placed func(context.Context, U) error
	// deferred is called for every item pushed to the buffer.
	deferred func(context.Context, U)
}

// drain runs until in is empty:
//  1. stop with a cancellation error when ctx is done;
//  2. flush the buffer from its head, stopping at the first refusal;
//  3. wait for the gate, then take one item, skipping the iteration when another consumer won the race;
//  4. apply the operation;
//  5. place the result, or push it to the buffer tail when refused.
//
// A final flushAll runs once the input is exhausted.
// A newer result may be placed ahead of older buffered ones while the output refuses transiently;
// only the multiset of results is preserved in that case.
func (d drainer[T, U]) drain(ctx context.Context, in Container[T]) error {
	for in.Count() > 0 {
		if ctx.Err() != nil {
			return cancelled(ctx)
		}

		d.buf.flush(d.put)

		if d.gate != nil {
			if err := d.gate(ctx); err != nil {
				return err
			}
		}

		item, ok := in.TryRemove()
		if !ok {
			continue
		}

		if err := d.offer(ctx, item); err != nil {
			return err
		}
	}

	d.buf.flushAll(d.put)

	return nil
}

// offer applies the operation to item and places or buffers the result.
func (d drainer[T, U]) offer(ctx context.Context, item T) error {
	result, err := d.apply(ctx, item)
	if err != nil {
		return err
	}

	if !d.put(result) {
		d.buf.push(result)
		if d.deferred != nil {
			d.deferred(ctx, result)
		}

		return nil
	}

	if d.placed != nil {
		return d.placed(ctx, result)
	}

	return nil
}
