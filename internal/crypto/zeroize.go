package crypto

import (
	"crypto/rand"
	"runtime"
)

// Wipe overwrites b with random bytes and then zeroes it, best-effort, to
// reduce the window a secret spends recoverable in memory. The random pass
// defeats compilers or memory scanners that might otherwise find residual
// patterns after a simple zero-fill.
//
//go:noinline
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}
