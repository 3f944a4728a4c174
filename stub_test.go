package tinygraph

import (
	"context"
	"sync"

	"github.com/golang/protobuf/proto"
	"google.golang.org/grpc"

	"github.com/tinygraph-io/tinygraph-client/protos/api"
)

// fakeGraph is an in-memory TinyGraph stub with pluggable handlers and
// call counters, for driving the client without a server.
type fakeGraph struct {
	mu sync.Mutex

	queryFn   func(ctx context.Context, req *api.Request) (*api.Response, error)
	commitFn  func(ctx context.Context, tc *api.TxnContext) (*api.TxnContext, error)
	loginFn   func(ctx context.Context, req *api.LoginRequest) (*api.Response, error)
	alterFn   func(ctx context.Context, op *api.Operation) (*api.Payload, error)
	versionFn func(ctx context.Context) (*api.Version, error)

	queries  int
	commits  int
	logins   int
	alters   int
	versions int
}

func (f *fakeGraph) count(n *int) {
	f.mu.Lock()
	*n++
	f.mu.Unlock()
}

func (f *fakeGraph) Query(ctx context.Context, req *api.Request, opts ...grpc.CallOption) (*api.Response, error) {
	f.count(&f.queries)
	if f.queryFn != nil {
		return f.queryFn(ctx, req)
	}
	return &api.Response{Txn: &api.TxnContext{StartTs: req.StartTs}}, nil
}

func (f *fakeGraph) CommitOrAbort(ctx context.Context, tc *api.TxnContext, opts ...grpc.CallOption) (*api.TxnContext, error) {
	f.count(&f.commits)
	if f.commitFn != nil {
		return f.commitFn(ctx, tc)
	}
	return &api.TxnContext{StartTs: tc.StartTs, CommitTs: tc.StartTs + 1, Aborted: tc.Aborted}, nil
}

func (f *fakeGraph) Login(ctx context.Context, req *api.LoginRequest, opts ...grpc.CallOption) (*api.Response, error) {
	f.count(&f.logins)
	if f.loginFn != nil {
		return f.loginFn(ctx, req)
	}
	return loginResponse("access", "refresh"), nil
}

func (f *fakeGraph) Alter(ctx context.Context, op *api.Operation, opts ...grpc.CallOption) (*api.Payload, error) {
	f.count(&f.alters)
	if f.alterFn != nil {
		return f.alterFn(ctx, op)
	}
	return &api.Payload{}, nil
}

func (f *fakeGraph) CheckVersion(ctx context.Context, in *api.Check, opts ...grpc.CallOption) (*api.Version, error) {
	f.count(&f.versions)
	if f.versionFn != nil {
		return f.versionFn(ctx)
	}
	return &api.Version{Tag: "v0.1.0"}, nil
}

func (f *fakeGraph) calls() (queries, commits, logins int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries, f.commits, f.logins
}

func loginResponse(accessJwt, refreshJwt string) *api.Response {
	b, err := proto.Marshal(&api.Jwt{AccessJwt: accessJwt, RefreshJwt: refreshJwt})
	if err != nil {
		panic(err)
	}
	return &api.Response{Json: b}
}

func mustClient(f *fakeGraph) *Client {
	c, err := NewClient(f)
	if err != nil {
		panic(err)
	}
	return c
}
