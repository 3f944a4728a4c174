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
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tinygraph-io/tinygraph-client/protos/api"
)

// memServer is a one-node graph store with snapshot reads and first-commit-wins
// conflict detection, good enough to exercise the whole transaction protocol
// without a network.
//
// The data model is deliberately tiny: a triple "subj pred value" is stored
// under the key "subj|pred", a query is just "subj pred", and the JSON answer
// is {"value": "..."} or {} when nothing is visible.
type memServer struct {
	mu       sync.Mutex
	clock    uint64
	versions map[string][]memVersion
	pending  map[uint64]*memTxn
}

type memVersion struct {
	value    string
	deleted  bool
	commitTs uint64
}

type memTxn struct {
	startTs uint64
	writes  map[string]memWrite
}

type memWrite struct {
	value   string
	deleted bool
}

func newMemServer() *memServer {
	return &memServer{
		versions: make(map[string][]memVersion),
		pending:  make(map[uint64]*memTxn),
	}
}

func (s *memServer) tick() uint64 {
	s.clock++
	return s.clock
}

func (s *memServer) txnAt(startTs uint64) *memTxn {
	t, ok := s.pending[startTs]
	if !ok {
		t = &memTxn{startTs: startTs, writes: make(map[string]memWrite)}
		s.pending[startTs] = t
	}
	return t
}

// readAt returns the value visible to a snapshot at startTs, pending writes
// of that transaction included.
func (s *memServer) readAt(t *memTxn, startTs uint64, key string) (string, bool) {
	if t != nil {
		if w, ok := t.writes[key]; ok {
			if w.deleted {
				return "", false
			}
			return w.value, true
		}
	}
	var best *memVersion
	for i := range s.versions[key] {
		v := &s.versions[key][i]
		if v.commitTs <= startTs && (best == nil || v.commitTs > best.commitTs) {
			best = v
		}
	}
	if best == nil || best.deleted {
		return "", false
	}
	return best.value, true
}

func (s *memServer) commitLocked(t *memTxn) (*api.TxnContext, error) {
	for key := range t.writes {
		for _, v := range s.versions[key] {
			if v.commitTs > t.startTs {
				return nil, status.Error(codes.Aborted, "Transaction has been aborted. Please retry")
			}
		}
	}
	commitTs := s.tick()
	for key, w := range t.writes {
		s.versions[key] = append(s.versions[key], memVersion{
			value:    w.value,
			deleted:  w.deleted,
			commitTs: commitTs,
		})
	}
	delete(s.pending, t.startTs)
	return &api.TxnContext{StartTs: t.startTs, CommitTs: commitTs}, nil
}

func (s *memServer) Query(ctx context.Context, req *api.Request, opts ...grpc.CallOption) (*api.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	startTs := req.StartTs
	if startTs == 0 {
		if req.BestEffort {
			// Best-effort reads reuse the latest known timestamp instead of
			// waiting for a fresh one.
			startTs = s.clock
		} else {
			startTs = s.tick()
		}
	}

	var t *memTxn
	if !req.ReadOnly {
		t = s.txnAt(startTs)
	}

	tctx := &api.TxnContext{StartTs: startTs, Hash: fmt.Sprintf("h-%d", startTs)}
	for _, mu := range req.Mutations {
		for _, line := range strings.Split(string(mu.SetNquads), "\n") {
			fields := strings.Fields(line)
			if len(fields) != 3 {
				continue
			}
			key := fields[0] + "|" + fields[1]
			t.writes[key] = memWrite{value: fields[2]}
			tctx.Keys = append(tctx.Keys, key)
			tctx.Preds = append(tctx.Preds, fields[1])
		}
		for _, line := range strings.Split(string(mu.DelNquads), "\n") {
			fields := strings.Fields(line)
			if len(fields) != 2 {
				continue
			}
			key := fields[0] + "|" + fields[1]
			t.writes[key] = memWrite{deleted: true}
			tctx.Keys = append(tctx.Keys, key)
			tctx.Preds = append(tctx.Preds, fields[1])
		}
	}

	resp := &api.Response{Txn: tctx}
	if q := strings.Fields(req.Query); len(q) == 2 {
		if value, ok := s.readAt(t, startTs, q[0]+"|"+q[1]); ok {
			resp.Json = []byte(fmt.Sprintf(`{"value":%q}`, value))
		} else {
			resp.Json = []byte("{}")
		}
	}

	if req.CommitNow && t != nil {
		cctx, err := s.commitLocked(t)
		if err != nil {
			return nil, err
		}
		tctx.CommitTs = cctx.CommitTs
	}
	return resp, nil
}

func (s *memServer) CommitOrAbort(ctx context.Context, tc *api.TxnContext, opts ...grpc.CallOption) (*api.TxnContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.pending[tc.StartTs]
	if tc.Aborted || !ok {
		delete(s.pending, tc.StartTs)
		return &api.TxnContext{StartTs: tc.StartTs, Aborted: true}, nil
	}
	return s.commitLocked(t)
}

func (s *memServer) Login(ctx context.Context, req *api.LoginRequest, opts ...grpc.CallOption) (*api.Response, error) {
	return loginResponse("access", "refresh"), nil
}

func (s *memServer) Alter(ctx context.Context, op *api.Operation, opts ...grpc.CallOption) (*api.Payload, error) {
	if op.DropAll {
		s.mu.Lock()
		s.versions = make(map[string][]memVersion)
		s.pending = make(map[uint64]*memTxn)
		s.mu.Unlock()
	}
	return &api.Payload{}, nil
}

func (s *memServer) CheckVersion(ctx context.Context, in *api.Check, opts ...grpc.CallOption) (*api.Version, error) {
	return &api.Version{Tag: "mem"}, nil
}

func memClient(t *testing.T) (*Client, *memServer) {
	srv := newMemServer()
	c, err := NewClient(srv)
	require.NoError(t, err)
	return c, srv
}

// readValue runs a fresh read-only query and decodes the single value.
func readValue(t *testing.T, c *Client, subj, pred string) (string, bool) {
	resp, err := c.NewReadOnlyTxn().Query(context.Background(), subj+" "+pred)
	require.NoError(t, err)
	var out struct {
		Value *string `json:"value"`
	}
	require.NoError(t, json.Unmarshal(resp.Json, &out))
	if out.Value == nil {
		return "", false
	}
	return *out.Value, true
}

func TestEndToEndCommitAndReadBack(t *testing.T) {
	ctx := context.Background()
	c, _ := memClient(t)

	txn := c.NewTxn()
	defer txn.Discard(ctx)
	_, err := txn.Mutate(ctx, setNquads("alice name Alice"))
	require.NoError(t, err)

	// Not visible to other transactions before commit.
	_, ok := readValue(t, c, "alice", "name")
	assert.False(t, ok)

	// Visible to the writer itself.
	resp, err := txn.Query(ctx, "alice name")
	require.NoError(t, err)
	assert.Contains(t, string(resp.Json), "Alice")

	require.NoError(t, txn.Commit(ctx))

	got, ok := readValue(t, c, "alice", "name")
	require.True(t, ok)
	assert.Equal(t, "Alice", got)
}

func TestEndToEndDiscardLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	c, srv := memClient(t)

	txn := c.NewTxn()
	_, err := txn.Mutate(ctx, setNquads("bob name Bob"))
	require.NoError(t, err)
	require.NoError(t, txn.Discard(ctx))

	_, ok := readValue(t, c, "bob", "name")
	assert.False(t, ok)
	assert.Empty(t, srv.pending, "abort releases server-side state")
}

func TestEndToEndDeleteTriple(t *testing.T) {
	ctx := context.Background()
	c, _ := memClient(t)

	txn := c.NewTxn()
	_, err := txn.Mutate(ctx, setNquads("carol name Carol"))
	require.NoError(t, err)
	require.NoError(t, txn.Commit(ctx))

	txn = c.NewTxn()
	_, err = txn.Mutate(ctx, &api.Mutation{DelNquads: []byte("carol name")})
	require.NoError(t, err)
	require.NoError(t, txn.Commit(ctx))

	_, ok := readValue(t, c, "carol", "name")
	assert.False(t, ok)
}

func TestEndToEndCommitNow(t *testing.T) {
	ctx := context.Background()
	c, _ := memClient(t)

	txn := c.NewTxn()
	mu := setNquads("dave name Dave")
	mu.CommitNow = true
	_, err := txn.Mutate(ctx, mu)
	require.NoError(t, err)
	assert.True(t, txn.finished, "commit_now makes the transaction terminal")

	got, ok := readValue(t, c, "dave", "name")
	require.True(t, ok)
	assert.Equal(t, "Dave", got)
}

func TestEndToEndConflict(t *testing.T) {
	ctx := context.Background()
	c, _ := memClient(t)

	first := c.NewTxn()
	second := c.NewTxn()
	defer first.Discard(ctx)
	defer second.Discard(ctx)

	_, err := first.Mutate(ctx, setNquads("erin name First"))
	require.NoError(t, err)
	_, err = second.Mutate(ctx, setNquads("erin name Second"))
	require.NoError(t, err)

	require.NoError(t, first.Commit(ctx))

	err = second.Commit(ctx)
	assert.True(t, errors.Is(err, ErrAborted), "second writer loses: %v", err)
	assert.True(t, second.finished, "a failed commit is still terminal")

	got, ok := readValue(t, c, "erin", "name")
	require.True(t, ok)
	assert.Equal(t, "First", got, "the winner's write survives")
}

func TestEndToEndSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	c, _ := memClient(t)

	setup := c.NewTxn()
	_, err := setup.Mutate(ctx, setNquads("frank name Old"))
	require.NoError(t, err)
	require.NoError(t, setup.Commit(ctx))

	// Reader starts before the writer commits and keeps seeing the old value.
	reader := c.NewReadOnlyTxn()
	resp, err := reader.Query(ctx, "frank name")
	require.NoError(t, err)
	assert.Contains(t, string(resp.Json), "Old")

	writer := c.NewTxn()
	_, err = writer.Mutate(ctx, setNquads("frank name New"))
	require.NoError(t, err)
	require.NoError(t, writer.Commit(ctx))

	resp, err = reader.Query(ctx, "frank name")
	require.NoError(t, err)
	assert.Contains(t, string(resp.Json), "Old", "snapshot pinned at first start_ts")

	got, _ := readValue(t, c, "frank", "name")
	assert.Equal(t, "New", got, "fresh transactions see the commit")
}

func TestRunTxnRetriesConflict(t *testing.T) {
	ctx := context.Background()
	c, _ := memClient(t)

	attempts := 0
	err := c.RunTxn(ctx, TxnOptions{}, quickPolicy(3), func(txn *Txn) error {
		attempts++
		if _, err := txn.Mutate(ctx, setNquads("grace count "+fmt.Sprint(attempts))); err != nil {
			return err
		}
		if attempts == 1 {
			// A rival lands a commit on the same key before ours, forcing
			// the first attempt to abort.
			rival := c.NewTxn()
			if _, err := rival.Mutate(ctx, setNquads("grace count rival")); err != nil {
				return err
			}
			if err := rival.Commit(ctx); err != nil {
				return err
			}
		}
		return txn.Commit(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts, "one conflict, one clean retry")

	got, ok := readValue(t, c, "grace", "count")
	require.True(t, ok)
	assert.Equal(t, "2", got)
}
