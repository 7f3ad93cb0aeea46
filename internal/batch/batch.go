// Package batch runs work in fixed-size chunks: members of a chunk run
// concurrently and every member settles before the next chunk starts.
package batch

import (
	"context"
	"sync"
)

// Run calls fn once per item. Items are split into chunks of size; each chunk
// is joined before the next begins. Run stops between chunks when ctx is done
// and returns ctx.Err().
func Run[T any](ctx context.Context, items []T, size int, fn func(context.Context, T)) error {
	for _, chunk := range Chunks(items, size) {
		if err := ctx.Err(); err != nil {
			return err
		}
		var wg sync.WaitGroup
		for _, item := range chunk {
			wg.Add(1)
			go func(item T) {
				defer wg.Done()
				fn(ctx, item)
			}(item)
		}
		wg.Wait()
	}
	return nil
}

// Chunks splits items into consecutive slices of at most size elements.
func Chunks[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]T{items}
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}
