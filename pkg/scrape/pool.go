package scrape

import "sync"

// MapConcurrent applies fn to every item with at most workers calls in
// flight, filling results in input order no matter the completion
// order. Workers pull the next pending index as soon as their current
// call finishes, so the pool never advances in lockstep batches.
func MapConcurrent[T, R any](items []T, workers int, fn func(T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}
	if workers <= 0 || workers > len(items) {
		workers = len(items)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = fn(items[i])
			}
		}()
	}
	for i := range items {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
	return results
}
