// Package common defines shared sentinel errors used across the backup
// engine and its collaborators. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Crypto errors.
	ErrKeyDerivation = errors.New("key derivation misconfigured")
	// ErrAuthenticationFailed covers both a wrong password and a tampered
	// ciphertext. The two cases are intentionally indistinguishable.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrUnknownAlgorithm     = errors.New("unknown cipher algorithm")

	// Archive / verification errors.
	ErrArchive         = errors.New("archive error")
	ErrIntegrityFailed = errors.New("integrity verification failed")

	// Backup file errors.
	ErrInvalidFormat = errors.New("invalid backup file format")

	// Engine errors.
	ErrOperationInProgress = errors.New("another backup operation is in progress")
	ErrSwapFailed          = errors.New("atomic swap failed")
	// ErrInconsistentState means a failed swap could not be rolled back.
	// Live storage is neither fully old nor fully new; manual intervention
	// is required. This is the only non-recoverable failure mode.
	ErrInconsistentState = errors.New("restore left live storage in an inconsistent state")

	// Repository errors.
	ErrorNotFound = errors.New("not found")
)
