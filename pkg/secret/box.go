// Package secret seals small values, such as the persisted session token, before they touch disk.
package secret

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	nonceSize = 24
	keySize   = 32

	// argon2id parameters: 2 passes over 19 MiB with a single lane.
	kdfTime    = 2
	kdfMemory  = 19 * 1024
	kdfThreads = 1
)

// kdfSalt is fixed so the same passphrase reopens values sealed by an earlier run.
var kdfSalt = []byte("study-planner/secret-box/v1")

// ErrOpen is returned when a sealed value cannot be authenticated with the box key.
var ErrOpen = errors.New("secret: unable to open sealed value")

// Box seals and opens values with a key derived from a passphrase.
type Box struct {
	key [keySize]byte
}

// NewBox derives the box key from passphrase. An empty passphrase is rejected.
func NewBox(passphrase string) (*Box, error) {
	if passphrase == "" {
		return nil, errors.New("secret: passphrase is required")
	}
	box := &Box{}
	copy(box.key[:], deriveKey(passphrase))
	return box, nil
}

func deriveKey(passphrase string) []byte {
	return argon2.IDKey([]byte(passphrase), kdfSalt, kdfTime, kdfMemory, kdfThreads, keySize)
}

// Seal encrypts plaintext. The random nonce is prefixed to the result.
func (b *Box) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("secret: read nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &b.key), nil
}

// Open decrypts a value produced by Seal.
func (b *Box) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrOpen
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &b.key)
	if !ok {
		return nil, ErrOpen
	}
	return plaintext, nil
}
