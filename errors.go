// Copyright 2021 TinyGraph Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package tinygraph

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrFinished is returned when an operation is run on a transaction
	// that has already been committed or discarded.
	ErrFinished = errors.New("transaction has already been committed or discarded")

	// ErrReadOnly is returned when a mutation or commit is attempted on a
	// read-only transaction.
	ErrReadOnly = errors.New("readonly transaction cannot run mutations or be committed")

	// ErrBestEffortReadOnly is returned when a best-effort transaction is
	// requested without read-only.
	ErrBestEffortReadOnly = errors.New("best-effort transactions are only compatible with read-only transactions")

	// ErrAborted is returned when the server detects an optimistic
	// concurrency conflict on commit. The transaction is over; retry the
	// work in a new transaction.
	ErrAborted = errors.New("transaction has been aborted: please retry")

	// ErrStartTsMismatch is returned when a server response carries a
	// start timestamp different from the one this transaction reads at.
	// It signals a protocol violation, never a transient condition.
	ErrStartTsMismatch = errors.New("transaction start timestamp mismatch")
)

// RetriableError wraps a server error that signals a transient condition
// (for example an index rebuild in progress). The retry engine treats it
// exactly like ErrAborted.
type RetriableError struct {
	Err error
}

func (e *RetriableError) Error() string {
	return fmt.Sprintf("retriable operation: %v", e.Err)
}

func (e *RetriableError) Unwrap() error { return e.Err }

// ConnectionError wraps a failure to reach the server at all. It is kept
// distinct from RetriableError so callers can tell "retry later" apart from
// a misconfigured endpoint; the retry engine does not consume it.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to server: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsConflict reports whether err belongs to the conflict class that the
// retry engine re-attempts: a server-side abort or a transient retriable
// condition.
func IsConflict(err error) bool {
	if errors.Is(err, ErrAborted) {
		return true
	}
	var retriable *RetriableError
	return errors.As(err, &retriable)
}

// classifyError maps a raw transport error into the client taxonomy. It is
// the single place gRPC status codes and message text are inspected; all
// downstream code matches the returned kinds.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if isCanceled(err) {
		// Cancellation belongs to the caller, never reinterpreted.
		return err
	}
	switch {
	case isAborted(err):
		return ErrAborted
	case isRetriable(err):
		return &RetriableError{Err: err}
	case isConnectionError(err):
		return &ConnectionError{Err: err}
	}
	return errors.WithStack(err)
}

func isCanceled(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch status.Code(err) {
	case codes.Canceled, codes.DeadlineExceeded:
		return true
	}
	return false
}

func isAborted(err error) bool {
	if status.Code(err) == codes.Aborted {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Transaction has been aborted") ||
		strings.Contains(msg, "Transaction is too old")
}

func isRetriable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Please retry") ||
		strings.Contains(msg, "retry operation") ||
		strings.Contains(msg, "opIndexing is in progress")
}

func isConnectionError(err error) bool {
	if status.Code(err) == codes.Unavailable {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Error while dialing") ||
		strings.Contains(msg, "connection refused")
}

// isJWTExpired detects the server's session-expiry signal. The expiry is
// handled with a one-shot refresh and resend, so it never reaches callers
// unless the retried call fails too.
func isJWTExpired(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "Token is expired")
}
