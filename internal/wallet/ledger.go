package wallet

import "sort"

// SumHistory recomputes a balance from its ledger entries. The stored
// balance must always equal this sum; tests and consistency checks rely
// on it.
func SumHistory(entries []Transaction) float64 {
	var sum float64
	for _, e := range entries {
		sum += e.Signed()
	}
	return sum
}

// SortNewestFirst orders entries for display, newest first. Ties keep
// their relative order so same-timestamp entries stay in append order.
func SortNewestFirst(entries []Transaction) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

// Page slices an ordered sequence. page is 1-based; out-of-range pages
// return an empty slice rather than an error.
func Page(entries []Transaction, page, size int) []Transaction {
	if page < 1 || size < 1 {
		return nil
	}

	start := (page - 1) * size
	if start >= len(entries) {
		return nil
	}

	end := start + size
	if end > len(entries) {
		end = len(entries)
	}

	return entries[start:end]
}
