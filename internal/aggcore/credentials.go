package aggcore

import "crypto/subtle"

// credentialsTable maps the ClientIDs selected for the current round to
// the Token the coordinator issued each of them. It is mutated only by
// the Service loop goroutine; nothing else may touch it, which is why it
// carries no lock of its own (compare internal/storage.MemoryStore, whose
// equivalent map is guarded by a mutex because it's reachable from
// multiple goroutines).
type credentialsTable map[ClientID]Token

func newCredentialsTable() credentialsTable {
	return make(credentialsTable)
}

// selectClient registers id for the current round, overwriting any prior
// token for the same id. Selecting the same client twice in a round is
// not an error; the newer token simply wins.
func (t credentialsTable) selectClient(id ClientID, token Token) {
	t[id] = token
}

// authorized reports whether token matches the one on file for id, using
// a constant-time comparison.
func (t credentialsTable) authorized(id ClientID, token Token) bool {
	expected, ok := t[id]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}

// clear empties the table. Called once, at the start of every aggregation
// round, per invariant 2: the table is cleared before aggregation begins.
func (t credentialsTable) clear() {
	for id := range t {
		delete(t, id)
	}
}

func (t credentialsTable) size() int {
	return len(t)
}
