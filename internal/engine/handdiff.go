package engine

// Resolver decides which index of a refreshed hand holds the tile the
// player just drew. The server only ever sends whole-hand snapshots,
// so the drawn position has to be reconstructed from the old hand, the
// new hand and an optional expected-tile hint taken from the draw
// event.
//
// The resolver owns exactly one piece of state: the pending
// expectation armed when a draw event for the local seat arrives ahead
// of the hand snapshot. It is cleared once resolved or invalidated.
type Resolver struct {
	pending  bool
	expected *int
}

// Arm records that a draw happened and, when the event named the tile,
// which tile to look for. A new draw supersedes any prior unresolved
// expectation.
func (r *Resolver) Arm(tile *int) {
	r.pending = true
	r.expected = tile
}

// Clear drops any pending expectation.
func (r *Resolver) Clear() {
	r.pending = false
	r.expected = nil
}

// Pending reports whether a draw is awaiting its hand snapshot.
func (r *Resolver) Pending() bool {
	return r.pending
}

// Resolve consumes the pending expectation against a hand transition.
// It returns the index of the drawn tile in newHand and whether a
// highlight should be shown. Failing to find a distinguishing index is
// not an error; the highlight is simply omitted.
func (r *Resolver) Resolve(oldHand, newHand []int) (int, bool) {
	// A shrink or same-size replacement invalidates the pending draw.
	if len(newHand) <= len(oldHand) {
		r.Clear()
		return -1, false
	}
	// A growth by more than one is a resync, not a draw landing.
	if len(newHand) != len(oldHand)+1 {
		r.Clear()
		return -1, false
	}
	if !r.pending {
		return -1, false
	}

	hint := r.expected
	r.Clear()

	if hint != nil {
		if idx := addedIndexForTile(newHand, oldHand, *hint); idx >= 0 {
			return idx, true
		}
	}
	if idx := addedIndex(newHand, oldHand); idx >= 0 {
		return idx, true
	}
	return -1, false
}

// addedIndexForTile finds the position of the first occurrence of tile
// in newHand beyond the occurrences already present in oldHand. With
// duplicates this skips exactly as many matches as existed before, so
// the highlight lands on the newly added copy.
func addedIndexForTile(newHand, oldHand []int, tile int) int {
	toSkip := 0
	for _, t := range oldHand {
		if t == tile {
			toSkip++
		}
	}
	for i, t := range newHand {
		if t != tile {
			continue
		}
		if toSkip == 0 {
			return i
		}
		toSkip--
	}
	return -1
}

// addedIndex treats oldHand as a multiset and returns the index of the
// first tile in newHand not explainable by it. When the hands differ
// by exactly one tile this always finds an answer.
func addedIndex(newHand, oldHand []int) int {
	counts := make(map[int]int, len(oldHand))
	for _, t := range oldHand {
		counts[t]++
	}
	for i, t := range newHand {
		if counts[t] == 0 {
			return i
		}
		counts[t]--
	}
	return -1
}
