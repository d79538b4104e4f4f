// Package secure holds resolved secret plaintext in memguard enclaves so the
// values are encrypted at rest in memory between the fetch and the moment the
// child environment is assembled. If mlock is unavailable (RLIMIT_MEMLOCK),
// memguard degrades gracefully to ordinary memory.
//
// Call memguard.Purge() at process exit paths that do not end in exec.
package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a destroyed buffer is revealed.
var ErrDestroyed = errors.New("secure: buffer already destroyed")

// Buffer stores one secret value encrypted in memory (XSalsa20Poly1305,
// mlock-backed where the platform allows it).
type Buffer struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	// destroyed allows idempotent Destroy() and blocks use after destroy
	destroyed bool
}

// NewBuffer seals the given bytes into a protected enclave. The input slice
// is consumed by memguard and wiped; callers must not reuse it. Empty values
// are legal (a secret can be the empty string) and carry no enclave.
func NewBuffer(data []byte) *Buffer {
	if len(data) == 0 {
		return &Buffer{}
	}
	return &Buffer{enclave: memguard.NewEnclave(data)}
}

// NewBufferFromString seals a string value. The string itself cannot be
// wiped (Go strings are immutable); the copy inside the enclave is protected.
func NewBufferFromString(value string) *Buffer {
	return NewBuffer([]byte(value))
}

// Reveal decrypts the enclave and returns a copy of the plaintext. The
// decrypted working buffer is wiped before returning; only the returned
// string remains, and it is the caller's to place into the child
// environment.
func (b *Buffer) Reveal() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.destroyed {
		return "", ErrDestroyed
	}
	if b.enclave == nil {
		return "", nil
	}

	locked, err := b.enclave.Open()
	if err != nil {
		return "", err
	}
	defer locked.Destroy()
	// string(Bytes()) copies; the locked region is wiped by Destroy.
	return string(locked.Bytes()), nil
}

// Destroy marks the buffer unusable. Idempotent. The encrypted enclave data
// is left to the garbage collector; it is ciphertext without its key.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}
	b.enclave = nil
	b.destroyed = true
}
