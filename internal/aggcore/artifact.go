package aggcore

// artifactStore holds the current global model artifact. Like
// credentialsTable, it is owned exclusively by the Service loop goroutine
// and carries no lock; the "atomic replace" invariant is satisfied simply
// by being the only thing that ever assigns to blob.
type artifactStore struct {
	blob Weights
}

// current returns a defensive copy of the stored artifact. An empty store
// (before the first successful aggregation) returns a nil Weights.
func (a *artifactStore) current() Weights {
	return a.blob.Clone()
}

// replace atomically swaps in a new artifact. The argument is cloned, so
// the caller's buffer is not aliased by the store.
func (a *artifactStore) replace(blob Weights) {
	a.blob = blob.Clone()
}
