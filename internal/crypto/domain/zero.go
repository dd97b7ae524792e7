package domain

import "runtime"

// Zero overwrites a byte slice with zeros to clear sensitive data from memory.
//
// This is best-effort: Go has no non-elidable write primitive, so a compiler
// that proves the slice dead could in principle drop the writes. The
// runtime.KeepAlive keeps the backing array reachable until after the loop,
// which is the strongest guarantee available without cgo.
func Zero(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
