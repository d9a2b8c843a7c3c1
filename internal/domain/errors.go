// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrProvider indicates the reasoning provider failed after all retries.
var ErrProvider = errors.New("reasoning provider failed")

// ErrDecryption indicates a credential ciphertext could not be decrypted.
var ErrDecryption = errors.New("decryption failed")
