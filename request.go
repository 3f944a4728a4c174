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
	"github.com/pkg/errors"

	"github.com/tinygraph-io/tinygraph-client/protos/api"
)

var (
	errEmptyMutation = errors.New("mutation must carry a payload")
	errMixedMutation = errors.New("mutation cannot combine JSON object and raw triple payloads")
)

// validateMutation checks that exactly one payload form is populated: the
// JSON object fields or the raw triple fields, never both, never neither.
func validateMutation(mu *api.Mutation) error {
	if mu == nil {
		return errors.WithStack(errEmptyMutation)
	}
	jsonForm := len(mu.SetJson) > 0 || len(mu.DeleteJson) > 0
	tripleForm := len(mu.SetNquads) > 0 || len(mu.DelNquads) > 0
	if jsonForm && tripleForm {
		return errors.WithStack(errMixedMutation)
	}
	if !jsonForm && !tripleForm {
		return errors.WithStack(errEmptyMutation)
	}
	return nil
}

// newQueryRequest builds a mutation-free request. The transaction start
// timestamp and hash are stamped later, at dispatch time.
func newQueryRequest(query string, vars map[string]string, format api.Request_RespFormat, readOnly, bestEffort bool) *api.Request {
	req := &api.Request{
		Query:      query,
		ReadOnly:   readOnly,
		BestEffort: bestEffort,
		RespFormat: format,
	}
	if len(vars) > 0 {
		req.Vars = make(map[string]string, len(vars))
		for k, v := range vars {
			req.Vars[k] = v
		}
	}
	return req
}

// newMutationRequest builds a request around one or more mutations.
// commit_now on any mutation implies commit_now on the whole request.
func newMutationRequest(mus []*api.Mutation, commitNow bool) (*api.Request, error) {
	if len(mus) == 0 {
		return nil, errors.WithStack(errEmptyMutation)
	}
	for _, mu := range mus {
		if err := validateMutation(mu); err != nil {
			return nil, err
		}
	}
	return &api.Request{
		Mutations: mus,
		CommitNow: commitNow || mutationsCommitNow(mus),
	}, nil
}

func mutationsCommitNow(mus []*api.Mutation) bool {
	for _, mu := range mus {
		if mu.GetCommitNow() {
			return true
		}
	}
	return false
}

// mergeTxnContext folds a server-returned context into the local one.
// start_ts is assigned exactly once, by the first response; keys and
// predicates only ever grow.
func mergeTxnContext(dst, src *api.TxnContext) error {
	if src == nil {
		// The server returns no context for some administrative responses.
		return nil
	}
	if dst.StartTs == 0 {
		dst.StartTs = src.StartTs
	} else if dst.StartTs != src.StartTs {
		return errors.Wrapf(ErrStartTsMismatch, "transaction %d, response %d", dst.StartTs, src.StartTs)
	}
	dst.Hash = src.Hash
	dst.Keys = append(dst.Keys, src.Keys...)
	dst.Preds = append(dst.Preds, src.Preds...)
	return nil
}
