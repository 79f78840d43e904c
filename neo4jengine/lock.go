package neo4jengine

import (
	"sync"
)

// We are not fully acquainted with Neo4j isolation levels, and have observed
// that two concurrent transactions might share data. Therefore, we need to
// prevent any update writes while a perspective is being read.
//
// A perspective read spans the whole graph: it filters every vertex and edge
// by the update stamps stored on them. When concurrent writes append stamps
// mid-sweep, the sweep can observe a vertex as active inside a window while
// missing the edge update that made it so, yielding degree counts that flip
// between valid values within seconds. Neo4j's isolation is not sufficient
// for the read consistency perspective sweeps require.
//
// To enforce this type of locking, we are introducing the graphWRMutex, an
// adaptation of sync.RWMutex to suit the specific locking requirements within
// the context of Neo4j graph operations, in which multiple concurrent write
// transactions are permissible, but read operations must be exclusive. The
// zero value for a graphWRMutex is an unlocked mutex.
//
// The guarantees provided by sync.RWMutex regarding the Go memory model,
// especially the "synchronises before" relationship, apply here as well.
// Thus, the n'th call to WUnlock precedes the m'th call to Lock. Likewise,
// for each call to Lock, there exists a call to WUnlock that precedes it,
// ensuring proper synchronisation.
type graphWRMutex sync.RWMutex

// WLock locks wr for writing. It should not be used for recursive write
// locking; a blocked Lock call excludes new writers from acquiring the lock.
func (wr *graphWRMutex) WLock() {
	(*sync.RWMutex)(wr).RLock()
}

// WUnlock undoes a single WLock call; it does not affect other simultaneous
// writers. It is a run-time error if wr is not locked for writing on entry to
// WUnlock.
func (wr *graphWRMutex) WUnlock() {
	(*sync.RWMutex)(wr).RUnlock()
}

// Lock locks wr for reading. If the lock is already locked for writing or
// reading, Lock blocks until the lock is available.
func (wr *graphWRMutex) Lock() {
	(*sync.RWMutex)(wr).Lock()
}

// Unlock undoes a single Lock call. It is a run-time error if wr is not
// locked for reading on entry to Unlock.
func (wr *graphWRMutex) Unlock() {
	(*sync.RWMutex)(wr).Unlock()
}
