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

// Package tinygraph is the Go client for the TinyGraph database. It wraps
// the gRPC API with optimistic-concurrency transactions, automatic session
// refresh and a bounded retry engine for server-side conflicts.
package tinygraph

import (
	"context"
	"math/rand"
	"sync"

	"github.com/golang/protobuf/proto"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/pingcap/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/tinygraph-io/tinygraph-client/grpcutil"
	"github.com/tinygraph-io/tinygraph-client/protos/api"
)

const accessJwtKey = "accessjwt"

// Client talks to a TinyGraph cluster. It can be backed by several
// connections, to one server or to many; each transaction picks one of
// them at random. The underlying connections are safe to share across any
// number of concurrent transactions.
type Client struct {
	dc    []api.TinyGraphClient
	conns []*grpc.ClientConn // owned only when built by Open

	// jwt is the session token pair, replaced wholesale on every
	// successful (re)login and never partially mutated.
	jwtMu   sync.RWMutex
	jwt     api.Jwt
	refresh singleflight.Group
}

// NewClient builds a client over existing service stubs. At least one stub
// is required.
func NewClient(clients ...api.TinyGraphClient) (*Client, error) {
	if len(clients) == 0 {
		return nil, errors.New("no TinyGraph clients provided")
	}
	return &Client{dc: clients}, nil
}

// Open dials every configured endpoint and, when credentials are present
// in the config, performs the initial login.
func Open(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conns := make([]*grpc.ClientConn, 0, len(cfg.Endpoints))
	clients := make([]api.TinyGraphClient, 0, len(cfg.Endpoints))
	for _, addr := range cfg.Endpoints {
		conn, err := grpcutil.GetClientConn(addr, cfg.Security)
		if err != nil {
			for _, cc := range conns {
				cc.Close()
			}
			return nil, err
		}
		conns = append(conns, conn)
		clients = append(clients, api.NewTinyGraphClient(conn))
	}

	c := &Client{dc: clients, conns: conns}
	if cfg.Userid != "" {
		if err := c.LoginIntoNamespace(context.Background(), cfg.Userid, cfg.Password, cfg.Namespace); err != nil {
			c.Close()
			return nil, err
		}
	}
	log.Info("[tinygraph] client opened", zap.Strings("endpoints", cfg.Endpoints))
	return c, nil
}

// Close releases the connections owned by this client. Clients built over
// caller-provided stubs own nothing and Close is a no-op.
func (c *Client) Close() error {
	var firstErr error
	for _, conn := range c.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = errors.WithStack(err)
		}
	}
	return firstErr
}

// anyClient picks one backing stub at random; the choice is sticky for the
// lifetime of the transaction created with it.
func (c *Client) anyClient() api.TinyGraphClient {
	return c.dc[rand.Intn(len(c.dc))]
}

// NewTxn creates a read-write transaction.
func (c *Client) NewTxn() *Txn {
	txn, _ := c.NewTxnWithOptions(TxnOptions{})
	return txn
}

// NewReadOnlyTxn creates a read-only transaction.
func (c *Client) NewReadOnlyTxn() *Txn {
	txn, _ := c.NewTxnWithOptions(TxnOptions{ReadOnly: true})
	return txn
}

// NewTxnWithOptions creates a transaction with explicit options.
// Best-effort without read-only fails validation before anything else.
func (c *Client) NewTxnWithOptions(opts TxnOptions) (*Txn, error) {
	if opts.BestEffort && !opts.ReadOnly {
		return nil, errors.WithStack(ErrBestEffortReadOnly)
	}
	return &Txn{
		dg:         c,
		dc:         c.anyClient(),
		ctx:        &api.TxnContext{},
		readOnly:   opts.ReadOnly,
		bestEffort: opts.BestEffort,
	}, nil
}

// Login authenticates against the default namespace.
func (c *Client) Login(ctx context.Context, userid, password string) error {
	return c.LoginIntoNamespace(ctx, userid, password, 0)
}

// LoginIntoNamespace authenticates with an id and secret and stores the
// returned token pair.
func (c *Client) LoginIntoNamespace(ctx context.Context, userid, password string, namespace uint64) error {
	resp, err := c.anyClient().Login(ctx, &api.LoginRequest{
		Userid:    userid,
		Password:  password,
		Namespace: namespace,
	})
	if err != nil {
		return classifyError(err)
	}
	if err := c.storeJwt(resp); err != nil {
		return err
	}
	log.Info("[tinygraph] logged in", zap.String("userid", userid), zap.Uint64("namespace", namespace))
	return nil
}

func (c *Client) storeJwt(resp *api.Response) error {
	var jwt api.Jwt
	if err := proto.Unmarshal(resp.GetJson(), &jwt); err != nil {
		return errors.Wrap(err, "unmarshal login response")
	}
	if jwt.AccessJwt == "" {
		return errors.New("login response carries no access token")
	}
	c.jwtMu.Lock()
	c.jwt = jwt
	c.jwtMu.Unlock()
	return nil
}

// refreshLogin exchanges the refresh token for a new token pair. Parallel
// transactions that hit session expiry at the same time collapse into a
// single exchange.
func (c *Client) refreshLogin(ctx context.Context) error {
	_, err, _ := c.refresh.Do("login", func() (interface{}, error) {
		c.jwtMu.RLock()
		refreshJwt := c.jwt.RefreshJwt
		c.jwtMu.RUnlock()
		if refreshJwt == "" {
			return nil, errors.New("refresh token is empty: call Login first")
		}

		resp, err := c.anyClient().Login(ctx, &api.LoginRequest{RefreshToken: refreshJwt})
		if err != nil {
			return nil, classifyError(err)
		}
		return nil, c.storeJwt(resp)
	})
	return err
}

// attachCredentials stamps the current access token onto the outgoing call
// metadata. Caller-supplied metadata is preserved, but cannot override the
// token.
func (c *Client) attachCredentials(ctx context.Context) context.Context {
	c.jwtMu.RLock()
	accessJwt := c.jwt.AccessJwt
	c.jwtMu.RUnlock()
	if accessJwt == "" {
		return ctx
	}

	md, ok := metadata.FromOutgoingContext(ctx)
	if ok {
		md = md.Copy()
	} else {
		md = metadata.New(nil)
	}
	md.Set(accessJwtKey, accessJwt)
	return metadata.NewOutgoingContext(ctx, md)
}

// Alter applies a schema change or drop operation, with the same one-shot
// session-refresh behavior as transactional calls.
func (c *Client) Alter(ctx context.Context, op *api.Operation) error {
	if span := opentracing.SpanFromContext(ctx); span != nil {
		span = opentracing.StartSpan("client.Alter", opentracing.ChildOf(span.Context()))
		defer span.Finish()
	}

	dc := c.anyClient()
	_, err := dc.Alter(c.attachCredentials(ctx), op)
	if isJWTExpired(err) {
		if rerr := c.refreshLogin(ctx); rerr != nil {
			return rerr
		}
		_, err = dc.Alter(c.attachCredentials(ctx), op)
	}
	return classifyError(err)
}

// CheckVersion returns the server release tag once the server is ready to
// accept requests.
func (c *Client) CheckVersion(ctx context.Context) (string, error) {
	dc := c.anyClient()
	v, err := dc.CheckVersion(c.attachCredentials(ctx), &api.Check{})
	if isJWTExpired(err) {
		if rerr := c.refreshLogin(ctx); rerr != nil {
			return "", rerr
		}
		v, err = dc.CheckVersion(c.attachCredentials(ctx), &api.Check{})
	}
	if err != nil {
		return "", classifyError(err)
	}
	return v.GetTag(), nil
}
