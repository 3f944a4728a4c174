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

// Package grpcutil builds gRPC client connections with the transport-layer
// credentials a TinyGraph endpoint may require.
package grpcutil

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"io/ioutil"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

// Security holds the transport credentials for one endpoint set: mutual
// TLS paths and, for managed deployments, an API key or bearer token sent
// as per-RPC metadata.
type Security struct {
	CAPath      string `toml:"ca-path"`
	CertPath    string `toml:"cert-path"`
	KeyPath     string `toml:"key-path"`
	APIKey      string `toml:"api-key"`
	BearerToken string `toml:"bearer-token"`
}

// Validate rejects contradictory settings.
func (s Security) Validate() error {
	if s.APIKey != "" && s.BearerToken != "" {
		return errors.New("api key and bearer token cannot both be set")
	}
	if (s.CertPath == "") != (s.KeyPath == "") {
		return errors.New("client cert and key paths must be set together")
	}
	return nil
}

func (s Security) authHeader() string {
	switch {
	case s.APIKey != "":
		return s.APIKey
	case s.BearerToken != "":
		return "Bearer " + s.BearerToken
	}
	return ""
}

type authCreds struct {
	header string
}

func (a authCreds) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	return map[string]string{"authorization": a.header}, nil
}

func (a authCreds) RequireTransportSecurity() bool { return false }

// GetClientConn returns a gRPC client connection to addr with the given
// security settings applied.
func GetClientConn(addr string, security Security) (*grpc.ClientConn, error) {
	if err := security.Validate(); err != nil {
		return nil, err
	}

	opts := []grpc.DialOption{grpc.WithInsecure()}
	if len(security.CAPath) != 0 {
		var certificates []tls.Certificate
		if len(security.CertPath) != 0 && len(security.KeyPath) != 0 {
			// Load the client certificates from disk
			certificate, err := tls.LoadX509KeyPair(security.CertPath, security.KeyPath)
			if err != nil {
				return nil, errors.Errorf("could not load client key pair: %s", err)
			}
			certificates = append(certificates, certificate)
		}

		// Create a certificate pool from the certificate authority
		certPool := x509.NewCertPool()
		ca, err := ioutil.ReadFile(security.CAPath)
		if err != nil {
			return nil, errors.Errorf("could not read ca certificate: %s", err)
		}
		if !certPool.AppendCertsFromPEM(ca) {
			return nil, errors.New("failed to append ca certs")
		}

		creds := credentials.NewTLS(&tls.Config{
			Certificates: certificates,
			RootCAs:      certPool,
		})
		opts = []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	}
	if header := security.authHeader(); header != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(authCreds{header: header}))
	}

	cc, err := grpc.Dial(addr, opts...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return cc, nil
}
