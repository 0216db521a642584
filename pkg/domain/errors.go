package domain

import "errors"

// ErrEmptySubject is returned when a subject is empty after trimming whitespace.
var ErrEmptySubject = errors.New("subject is empty")

// ErrSuperseded is returned when waiting on a request that a newer submission replaced.
var ErrSuperseded = errors.New("request superseded by a newer submission")

// ErrSecretNotFound is returned when a key cannot be found in the secret store.
var ErrSecretNotFound = errors.New("secret not found")
