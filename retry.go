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
	"math/rand"
	"time"

	"github.com/pingcap/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Retry defaults, used by DefaultRetryPolicy.
const (
	DefaultMaxRetries = 5
	DefaultBaseDelay  = 100 * time.Millisecond
	DefaultMaxDelay   = 5 * time.Second
	DefaultJitter     = 0.1
)

// RetryPolicy bounds how conflict-class failures are re-attempted.
type RetryPolicy struct {
	// MaxRetries is the number of re-attempts after the first; the work
	// runs at most MaxRetries+1 times.
	MaxRetries int
	// BaseDelay is the wait before the first re-attempt; it doubles on
	// each further one.
	BaseDelay time.Duration
	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration
	// Jitter in [0, 1] adds up to that fraction of the delay at random,
	// spreading out synchronized retries.
	Jitter float64
}

// DefaultRetryPolicy returns the stock policy: 5 retries, 100ms base, 5s
// cap, 10% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
		Jitter:     DefaultJitter,
	}
}

// Validate rejects a malformed policy before any attempt runs.
func (p RetryPolicy) Validate() error {
	if p.MaxRetries < 0 {
		return errors.Errorf("max retries must be >= 0, got %d", p.MaxRetries)
	}
	if p.BaseDelay < 0 {
		return errors.Errorf("base delay must be >= 0, got %v", p.BaseDelay)
	}
	if p.MaxDelay < 0 {
		return errors.Errorf("max delay must be >= 0, got %v", p.MaxDelay)
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		return errors.Errorf("jitter must be within [0, 1], got %v", p.Jitter)
	}
	return nil
}

// Backoff returns the wait after attempt n (0-based):
// min(BaseDelay*2^n, MaxDelay), plus uniform jitter of up to Jitter of
// that value.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay || delay < 0 {
			delay = p.MaxDelay
			break
		}
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter > 0 {
		delay += time.Duration(rand.Float64() * p.Jitter * float64(delay))
	}
	return delay
}

// RunWithRetry runs work, re-attempting it only when it fails with a
// conflict-class error (see IsConflict). Any other failure propagates
// immediately without consuming the retry budget; exhausting the budget
// returns the last conflict error. Backoff waits honor ctx cancellation.
func RunWithRetry(ctx context.Context, policy RetryPolicy, work func(ctx context.Context) error) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		err := work(ctx)
		if err == nil {
			return nil
		}
		if !IsConflict(err) {
			return err
		}
		lastErr = err
		if attempt == policy.MaxRetries {
			break
		}

		delay := policy.Backoff(attempt)
		log.Debug("[tinygraph] transaction conflict, backing off",
			zap.Int("attempt", attempt+1),
			zap.Int("max-attempts", policy.MaxRetries+1),
			zap.Duration("delay", delay),
			zap.Error(err))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	log.Warn("[tinygraph] transaction retries exhausted",
		zap.Int("attempts", policy.MaxRetries+1), zap.Error(lastErr))
	return lastErr
}

// RunTxn runs fn against a fresh transaction on every attempt, so a
// conflicted transaction is never reused and never leaks: each one is
// discarded when its attempt ends, whatever the outcome. fn is expected to
// call Commit itself when it wants the work to stick.
func (c *Client) RunTxn(ctx context.Context, opts TxnOptions, policy RetryPolicy, fn func(txn *Txn) error) error {
	return RunWithRetry(ctx, policy, func(ctx context.Context) error {
		txn, err := c.NewTxnWithOptions(opts)
		if err != nil {
			return err
		}
		defer func() {
			// The attempt's own error is what the caller should see.
			_ = txn.Discard(ctx)
		}()
		return fn(txn)
	})
}
