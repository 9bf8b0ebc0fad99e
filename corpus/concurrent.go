// SPDX-License-Identifier: GPL-3.0-or-later
package corpus

// extractFiles reads and decomposes paths with up to b.concurrency goroutines. Results keep the
// order of paths so committing them stays deterministic.
func (b *Builder) extractFiles(paths []string, isSpam bool) []Result {
	results := make([]Result, len(paths))
	processed := 0

	if b.concurrency <= 1 {
		for i, p := range paths {
			results[i] = b.extractFile(p, isSpam)
			b.reportProgress(&processed, len(paths))
		}
		return results
	}

	semaphore := make(chan bool, b.concurrency)
	for i := 0; i < len(paths); i++ {
		semaphore <- true
		go func(index int) {
			results[index] = b.extractFile(paths[index], isSpam)
			b.reportProgress(&processed, len(paths))
			<-semaphore
		}(i)
	}

	for i := 0; i < b.concurrency; i++ {
		semaphore <- true
	}

	return results
}
