// Package service implements the administrative operations on reference
// entities, accounts and clients. Every mutating operation validates inside
// the same transaction as its write and reports outcomes as result.Result
// values with stable error codes.
package service

import (
	"errors"
	"time"

	"github.com/castellan/castellan/pkg/result"
)

// errRejected aborts a WithTx callback so the transaction rolls back when
// validation rejected the entity. The rejected Result carries the detail.
var errRejected = errors.New("service: rejected")

// ErrClientNotFound is returned by the authentication lookup when the
// client id does not resolve.
var ErrClientNotFound = errors.New("client not found")

func systemError() result.Error {
	return result.Errorf(result.SystemError, "SYS-0002",
		"An unexpected error occurred while processing your request.")
}

// touch returns the update timestamp for an accepted mutation. It is
// strictly after prev even when the clock has not advanced past the stored
// value.
func touch(prev time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}
