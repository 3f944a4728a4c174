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
	"sync"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/tinygraph-io/tinygraph-client/protos/api"
)

// TxnOptions configures a new transaction.
type TxnOptions struct {
	// ReadOnly transactions never acquire a commit timestamp and cannot
	// run mutations.
	ReadOnly bool
	// BestEffort lets a read-only transaction read a slightly stale
	// snapshot in exchange for lower latency. Requires ReadOnly.
	BestEffort bool
}

// Txn is a single transaction against the cluster.
//
// A transaction lifecycle is as follows:
//
//  1. Created via Client.NewTxn, Client.NewReadOnlyTxn or
//     Client.NewTxnWithOptions.
//  2. Modified via calls to Query, Mutate and Do.
//  3. Committed or discarded. If any mutations have been made, it is
//     important that at least one of Commit or Discard runs to clean up
//     server-side resources. Discard is a safe no-op after Commit, so the
//     usual shape is `defer txn.Discard(ctx)` right after creation.
//
// A Txn may be shared by concurrent goroutines; its state is guarded by a
// non-reentrant mutex held for the full duration of each call.
type Txn struct {
	dg *Client
	dc api.TinyGraphClient

	mu       sync.Mutex
	ctx      *api.TxnContext
	finished bool
	mutated  bool

	readOnly   bool
	bestEffort bool
}

// Query runs a query with the JSON response format.
func (txn *Txn) Query(ctx context.Context, q string) (*api.Response, error) {
	return txn.QueryWithVars(ctx, q, nil)
}

// QueryWithVars runs a query with a variable map. Keys and values are
// strings by construction of the map type.
func (txn *Txn) QueryWithVars(ctx context.Context, q string, vars map[string]string) (*api.Response, error) {
	req := newQueryRequest(q, vars, api.Request_JSON, txn.readOnly, txn.bestEffort)
	return txn.Do(ctx, req)
}

// QueryRDF runs a query with the raw-triple response format.
func (txn *Txn) QueryRDF(ctx context.Context, q string) (*api.Response, error) {
	return txn.QueryRDFWithVars(ctx, q, nil)
}

// QueryRDFWithVars runs a query with a variable map, returning raw triples.
func (txn *Txn) QueryRDFWithVars(ctx context.Context, q string, vars map[string]string) (*api.Response, error) {
	req := newQueryRequest(q, vars, api.Request_RDF, txn.readOnly, txn.bestEffort)
	return txn.Do(ctx, req)
}

// Mutate runs a single mutation. If mu.CommitNow is set, the mutation is
// committed in the same round trip and the transaction becomes terminal.
func (txn *Txn) Mutate(ctx context.Context, mu *api.Mutation) (*api.Response, error) {
	req, err := newMutationRequest([]*api.Mutation{mu}, mu.GetCommitNow())
	if err != nil {
		return nil, err
	}
	return txn.Do(ctx, req)
}

// Do dispatches an arbitrary request, the upsert form included: a query
// plus zero or more mutations executed in one round trip.
func (txn *Txn) Do(ctx context.Context, req *api.Request) (*api.Response, error) {
	if span := opentracing.SpanFromContext(ctx); span != nil {
		span = opentracing.StartSpan("txn.Do", opentracing.ChildOf(span.Context()))
		defer span.Finish()
	}
	for _, mu := range req.Mutations {
		if err := validateMutation(mu); err != nil {
			return nil, err
		}
	}
	if len(req.Mutations) > 0 && !req.CommitNow {
		req.CommitNow = mutationsCommitNow(req.Mutations)
	}
	return txn.doRequest(ctx, req)
}

// doRequest is the shared dispatch path for Query, Mutate and Do. It holds
// the transaction mutex for the whole exchange.
func (txn *Txn) doRequest(ctx context.Context, req *api.Request) (*api.Response, error) {
	txn.mu.Lock()
	defer txn.mu.Unlock()

	if txn.finished {
		return nil, errors.WithStack(ErrFinished)
	}
	if len(req.Mutations) > 0 {
		if txn.readOnly {
			return nil, errors.WithStack(ErrReadOnly)
		}
		txn.mutated = true
	}

	req.StartTs = txn.ctx.StartTs
	req.Hash = txn.ctx.Hash

	resp, err := txn.dc.Query(txn.dg.attachCredentials(ctx), req)
	if isJWTExpired(err) {
		if rerr := txn.dg.refreshLogin(ctx); rerr != nil {
			err = rerr
		} else {
			resp, err = txn.dc.Query(txn.dg.attachCredentials(ctx), req)
		}
	}
	if err != nil {
		if !isCanceled(err) {
			// Cleanup runs with the mutex already held, so it must use the
			// internal discard; the public Discard would deadlock. Its own
			// failure is dropped in favor of the triggering error.
			_ = txn.discard(ctx)
		}
		return nil, classifyError(err)
	}

	if req.CommitNow {
		txn.finished = true
	}
	if err := txn.mergeContext(resp.GetTxn()); err != nil {
		return nil, err
	}
	return resp, nil
}

// Commit commits the transaction. If no mutations were run, the commit
// needs no round trip and succeeds locally. A server-side conflict surfaces
// as ErrAborted; either way the transaction is terminal afterwards and the
// caller must retry with a new one.
func (txn *Txn) Commit(ctx context.Context) error {
	if span := opentracing.SpanFromContext(ctx); span != nil {
		span = opentracing.StartSpan("txn.Commit", opentracing.ChildOf(span.Context()))
		defer span.Finish()
	}

	txn.mu.Lock()
	defer txn.mu.Unlock()

	if txn.readOnly {
		return errors.WithStack(ErrReadOnly)
	}
	if txn.finished {
		return errors.WithStack(ErrFinished)
	}
	txn.finished = true
	if !txn.mutated {
		return nil
	}
	return txn.commitOrAbort(ctx)
}

func (txn *Txn) commitOrAbort(ctx context.Context) error {
	cctx, err := txn.dc.CommitOrAbort(txn.dg.attachCredentials(ctx), txn.ctx)
	if isJWTExpired(err) {
		if rerr := txn.dg.refreshLogin(ctx); rerr != nil {
			err = rerr
		} else {
			cctx, err = txn.dc.CommitOrAbort(txn.dg.attachCredentials(ctx), txn.ctx)
		}
	}
	if err != nil {
		return classifyError(err)
	}
	txn.ctx.CommitTs = cctx.GetCommitTs()
	if cctx.GetAborted() {
		txn.ctx.Aborted = true
		return errors.WithStack(ErrAborted)
	}
	return nil
}

// Discard drops the transaction. It is idempotent: calling it twice, or
// after Commit, is a safe no-op. The abort round trip only happens when
// there are pending writes to unwind.
func (txn *Txn) Discard(ctx context.Context) error {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	return txn.discard(ctx)
}

// discard assumes txn.mu is held. The mutex is not reentrant; every
// cleanup site that already owns it must call this variant instead of
// Discard.
func (txn *Txn) discard(ctx context.Context) error {
	if txn.finished {
		return nil
	}
	txn.finished = true
	if !txn.mutated {
		return nil
	}

	txn.ctx.Aborted = true
	_, err := txn.dc.CommitOrAbort(txn.dg.attachCredentials(ctx), txn.ctx)
	if isJWTExpired(err) {
		if rerr := txn.dg.refreshLogin(ctx); rerr != nil {
			return classifyError(rerr)
		}
		_, err = txn.dc.CommitOrAbort(txn.dg.attachCredentials(ctx), txn.ctx)
	}
	return classifyError(err)
}

func (txn *Txn) mergeContext(src *api.TxnContext) error {
	return mergeTxnContext(txn.ctx, src)
}
