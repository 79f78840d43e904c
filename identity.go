package tempograph

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"sync"
)

// GlobalID is the stable internal identifier of a vertex. It identifies the
// same vertex across graphs and engines because it is computed from the
// vertex's external name, as opposed to being assigned locally inside an
// engine.
type GlobalID uint64

func (id GlobalID) String() string { return fmt.Sprintf("vertex(%d)", uint64(id)) }

// AssignID resolves an external vertex name to its GlobalID.
//
// The function is pure: it is a stable hash of the name, so repeated calls
// with the same string always return the same id, in this process and any
// other. Any string is a valid input.
//
// The id is the first eight bytes of the name's SHA-1 digest. Collisions
// between distinct names require on the order of 2^32 names and are treated
// as a fatal integrity violation when detected (see identityTable).
func AssignID(name string) GlobalID {
	sum := sha1.Sum([]byte(name))
	return GlobalID(binary.BigEndian.Uint64(sum[:8]))
}

// An identityTable records which name each GlobalID was assigned to, so that
// a hash collision between two distinct names surfaces as an error instead of
// silently merging two vertices.
//
// The zero value is ready for use. An identityTable is safe for concurrent
// use; each Graph owns exactly one.
type identityTable struct {
	mu    sync.Mutex
	names map[GlobalID]string
}

// Resolve assigns an id to the given name and records the assignment. It
// returns a non-nil error wrapping ErrIdentityCollision if the id was
// previously assigned to a different name.
func (t *identityTable) Resolve(name string) (GlobalID, error) {
	id := AssignID(name)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.names == nil {
		t.names = make(map[GlobalID]string)
	}
	if prev, ok := t.names[id]; ok && prev != name {
		return id, fmt.Errorf("%w: %q and %q both map to %v", ErrIdentityCollision, prev, name, id)
	}
	t.names[id] = name
	return id, nil
}
