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

// Package api holds the message types exchanged with the TinyGraph server.
// The structs are a hand-maintained mirror of api.proto; keep the field
// numbers in the protobuf tags in sync with the proto file.
package api

import (
	"github.com/golang/protobuf/proto"
)

// Request_RespFormat selects how the server renders query results.
type Request_RespFormat int32

const (
	Request_JSON Request_RespFormat = 0
	Request_RDF  Request_RespFormat = 1
)

var Request_RespFormat_name = map[int32]string{
	0: "JSON",
	1: "RDF",
}

var Request_RespFormat_value = map[string]int32{
	"JSON": 0,
	"RDF":  1,
}

func (x Request_RespFormat) String() string {
	return proto.EnumName(Request_RespFormat_name, int32(x))
}

// Request is a single query/mutation round trip within a transaction.
type Request struct {
	StartTs    uint64             `protobuf:"varint,1,opt,name=start_ts,json=startTs,proto3" json:"start_ts,omitempty"`
	Query      string             `protobuf:"bytes,4,opt,name=query,proto3" json:"query,omitempty"`
	Vars       map[string]string  `protobuf:"bytes,5,rep,name=vars,proto3" json:"vars,omitempty" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
	ReadOnly   bool               `protobuf:"varint,6,opt,name=read_only,json=readOnly,proto3" json:"read_only,omitempty"`
	BestEffort bool               `protobuf:"varint,7,opt,name=best_effort,json=bestEffort,proto3" json:"best_effort,omitempty"`
	Mutations  []*Mutation        `protobuf:"bytes,12,rep,name=mutations,proto3" json:"mutations,omitempty"`
	CommitNow  bool               `protobuf:"varint,13,opt,name=commit_now,json=commitNow,proto3" json:"commit_now,omitempty"`
	RespFormat Request_RespFormat `protobuf:"varint,14,opt,name=resp_format,json=respFormat,proto3,enum=api.Request_RespFormat" json:"resp_format,omitempty"`
	Hash       string             `protobuf:"bytes,15,opt,name=hash,proto3" json:"hash,omitempty"`
}

func (m *Request) Reset()         { *m = Request{} }
func (m *Request) String() string { return proto.CompactTextString(m) }
func (*Request) ProtoMessage()    {}

func (m *Request) GetStartTs() uint64 {
	if m != nil {
		return m.StartTs
	}
	return 0
}

func (m *Request) GetQuery() string {
	if m != nil {
		return m.Query
	}
	return ""
}

func (m *Request) GetVars() map[string]string {
	if m != nil {
		return m.Vars
	}
	return nil
}

func (m *Request) GetReadOnly() bool {
	if m != nil {
		return m.ReadOnly
	}
	return false
}

func (m *Request) GetBestEffort() bool {
	if m != nil {
		return m.BestEffort
	}
	return false
}

func (m *Request) GetMutations() []*Mutation {
	if m != nil {
		return m.Mutations
	}
	return nil
}

func (m *Request) GetCommitNow() bool {
	if m != nil {
		return m.CommitNow
	}
	return false
}

func (m *Request) GetRespFormat() Request_RespFormat {
	if m != nil {
		return m.RespFormat
	}
	return Request_JSON
}

func (m *Request) GetHash() string {
	if m != nil {
		return m.Hash
	}
	return ""
}

// Mutation carries the data to add or remove. Exactly one payload form is
// expected per value: either the JSON object fields or the raw triple fields.
type Mutation struct {
	SetJson    []byte `protobuf:"bytes,1,opt,name=set_json,json=setJson,proto3" json:"set_json,omitempty"`
	DeleteJson []byte `protobuf:"bytes,2,opt,name=delete_json,json=deleteJson,proto3" json:"delete_json,omitempty"`
	SetNquads  []byte `protobuf:"bytes,3,opt,name=set_nquads,json=setNquads,proto3" json:"set_nquads,omitempty"`
	DelNquads  []byte `protobuf:"bytes,4,opt,name=del_nquads,json=delNquads,proto3" json:"del_nquads,omitempty"`
	Cond       string `protobuf:"bytes,9,opt,name=cond,proto3" json:"cond,omitempty"`
	CommitNow  bool   `protobuf:"varint,14,opt,name=commit_now,json=commitNow,proto3" json:"commit_now,omitempty"`
}

func (m *Mutation) Reset()         { *m = Mutation{} }
func (m *Mutation) String() string { return proto.CompactTextString(m) }
func (*Mutation) ProtoMessage()    {}

func (m *Mutation) GetSetJson() []byte {
	if m != nil {
		return m.SetJson
	}
	return nil
}

func (m *Mutation) GetDeleteJson() []byte {
	if m != nil {
		return m.DeleteJson
	}
	return nil
}

func (m *Mutation) GetSetNquads() []byte {
	if m != nil {
		return m.SetNquads
	}
	return nil
}

func (m *Mutation) GetDelNquads() []byte {
	if m != nil {
		return m.DelNquads
	}
	return nil
}

func (m *Mutation) GetCond() string {
	if m != nil {
		return m.Cond
	}
	return ""
}

func (m *Mutation) GetCommitNow() bool {
	if m != nil {
		return m.CommitNow
	}
	return false
}

// Response is the server's answer to a Request. Login responses reuse it
// with a serialized Jwt in the Json field.
type Response struct {
	Json    []byte            `protobuf:"bytes,1,opt,name=json,proto3" json:"json,omitempty"`
	Txn     *TxnContext       `protobuf:"bytes,2,opt,name=txn,proto3" json:"txn,omitempty"`
	Latency *Latency          `protobuf:"bytes,3,opt,name=latency,proto3" json:"latency,omitempty"`
	Uids    map[string]string `protobuf:"bytes,12,rep,name=uids,proto3" json:"uids,omitempty" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
	Rdf     []byte            `protobuf:"bytes,13,opt,name=rdf,proto3" json:"rdf,omitempty"`
}

func (m *Response) Reset()         { *m = Response{} }
func (m *Response) String() string { return proto.CompactTextString(m) }
func (*Response) ProtoMessage()    {}

func (m *Response) GetJson() []byte {
	if m != nil {
		return m.Json
	}
	return nil
}

func (m *Response) GetTxn() *TxnContext {
	if m != nil {
		return m.Txn
	}
	return nil
}

func (m *Response) GetLatency() *Latency {
	if m != nil {
		return m.Latency
	}
	return nil
}

func (m *Response) GetUids() map[string]string {
	if m != nil {
		return m.Uids
	}
	return nil
}

func (m *Response) GetRdf() []byte {
	if m != nil {
		return m.Rdf
	}
	return nil
}

// TxnContext is the server's view of a transaction: the snapshot it reads
// at and the keys/predicates it has touched so far.
type TxnContext struct {
	StartTs  uint64   `protobuf:"varint,1,opt,name=start_ts,json=startTs,proto3" json:"start_ts,omitempty"`
	CommitTs uint64   `protobuf:"varint,2,opt,name=commit_ts,json=commitTs,proto3" json:"commit_ts,omitempty"`
	Aborted  bool     `protobuf:"varint,3,opt,name=aborted,proto3" json:"aborted,omitempty"`
	Keys     []string `protobuf:"bytes,4,rep,name=keys,proto3" json:"keys,omitempty"`
	Preds    []string `protobuf:"bytes,5,rep,name=preds,proto3" json:"preds,omitempty"`
	Hash     string   `protobuf:"bytes,6,opt,name=hash,proto3" json:"hash,omitempty"`
}

func (m *TxnContext) Reset()         { *m = TxnContext{} }
func (m *TxnContext) String() string { return proto.CompactTextString(m) }
func (*TxnContext) ProtoMessage()    {}

func (m *TxnContext) GetStartTs() uint64 {
	if m != nil {
		return m.StartTs
	}
	return 0
}

func (m *TxnContext) GetCommitTs() uint64 {
	if m != nil {
		return m.CommitTs
	}
	return 0
}

func (m *TxnContext) GetAborted() bool {
	if m != nil {
		return m.Aborted
	}
	return false
}

func (m *TxnContext) GetKeys() []string {
	if m != nil {
		return m.Keys
	}
	return nil
}

func (m *TxnContext) GetPreds() []string {
	if m != nil {
		return m.Preds
	}
	return nil
}

func (m *TxnContext) GetHash() string {
	if m != nil {
		return m.Hash
	}
	return ""
}

// Latency reports where server time went for one request.
type Latency struct {
	ParsingNs    uint64 `protobuf:"varint,1,opt,name=parsing_ns,json=parsingNs,proto3" json:"parsing_ns,omitempty"`
	ProcessingNs uint64 `protobuf:"varint,2,opt,name=processing_ns,json=processingNs,proto3" json:"processing_ns,omitempty"`
	EncodingNs   uint64 `protobuf:"varint,3,opt,name=encoding_ns,json=encodingNs,proto3" json:"encoding_ns,omitempty"`
	TotalNs      uint64 `protobuf:"varint,4,opt,name=total_ns,json=totalNs,proto3" json:"total_ns,omitempty"`
}

func (m *Latency) Reset()         { *m = Latency{} }
func (m *Latency) String() string { return proto.CompactTextString(m) }
func (*Latency) ProtoMessage()    {}

func (m *Latency) GetTotalNs() uint64 {
	if m != nil {
		return m.TotalNs
	}
	return 0
}

// LoginRequest exchanges either userid+password or a refresh token for a
// new Jwt pair.
type LoginRequest struct {
	Userid       string `protobuf:"bytes,1,opt,name=userid,proto3" json:"userid,omitempty"`
	Password     string `protobuf:"bytes,2,opt,name=password,proto3" json:"password,omitempty"`
	RefreshToken string `protobuf:"bytes,3,opt,name=refresh_token,json=refreshToken,proto3" json:"refresh_token,omitempty"`
	Namespace    uint64 `protobuf:"varint,4,opt,name=namespace,proto3" json:"namespace,omitempty"`
}

func (m *LoginRequest) Reset()         { *m = LoginRequest{} }
func (m *LoginRequest) String() string { return proto.CompactTextString(m) }
func (*LoginRequest) ProtoMessage()    {}

func (m *LoginRequest) GetUserid() string {
	if m != nil {
		return m.Userid
	}
	return ""
}

func (m *LoginRequest) GetRefreshToken() string {
	if m != nil {
		return m.RefreshToken
	}
	return ""
}

// Jwt is the session token pair.
type Jwt struct {
	AccessJwt  string `protobuf:"bytes,1,opt,name=access_jwt,json=accessJwt,proto3" json:"access_jwt,omitempty"`
	RefreshJwt string `protobuf:"bytes,2,opt,name=refresh_jwt,json=refreshJwt,proto3" json:"refresh_jwt,omitempty"`
}

func (m *Jwt) Reset()         { *m = Jwt{} }
func (m *Jwt) String() string { return proto.CompactTextString(m) }
func (*Jwt) ProtoMessage()    {}

func (m *Jwt) GetAccessJwt() string {
	if m != nil {
		return m.AccessJwt
	}
	return ""
}

func (m *Jwt) GetRefreshJwt() string {
	if m != nil {
		return m.RefreshJwt
	}
	return ""
}

// Operation alters the schema or drops data.
type Operation struct {
	Schema          string `protobuf:"bytes,1,opt,name=schema,proto3" json:"schema,omitempty"`
	DropAttr        string `protobuf:"bytes,2,opt,name=drop_attr,json=dropAttr,proto3" json:"drop_attr,omitempty"`
	DropAll         bool   `protobuf:"varint,3,opt,name=drop_all,json=dropAll,proto3" json:"drop_all,omitempty"`
	RunInBackground bool   `protobuf:"varint,4,opt,name=run_in_background,json=runInBackground,proto3" json:"run_in_background,omitempty"`
}

func (m *Operation) Reset()         { *m = Operation{} }
func (m *Operation) String() string { return proto.CompactTextString(m) }
func (*Operation) ProtoMessage()    {}

func (m *Operation) GetSchema() string {
	if m != nil {
		return m.Schema
	}
	return ""
}

// Payload is an opaque server reply for administrative calls.
type Payload struct {
	Data []byte `protobuf:"bytes,1,opt,name=data,proto3" json:"data,omitempty"`
}

func (m *Payload) Reset()         { *m = Payload{} }
func (m *Payload) String() string { return proto.CompactTextString(m) }
func (*Payload) ProtoMessage()    {}

func (m *Payload) GetData() []byte {
	if m != nil {
		return m.Data
	}
	return nil
}

// Check is the empty argument of CheckVersion.
type Check struct{}

func (m *Check) Reset()         { *m = Check{} }
func (m *Check) String() string { return proto.CompactTextString(m) }
func (*Check) ProtoMessage()    {}

// Version carries the server's release tag.
type Version struct {
	Tag string `protobuf:"bytes,1,opt,name=tag,proto3" json:"tag,omitempty"`
}

func (m *Version) Reset()         { *m = Version{} }
func (m *Version) String() string { return proto.CompactTextString(m) }
func (*Version) ProtoMessage()    {}

func (m *Version) GetTag() string {
	if m != nil {
		return m.Tag
	}
	return ""
}

func init() {
	proto.RegisterEnum("api.Request_RespFormat", Request_RespFormat_name, Request_RespFormat_value)
	proto.RegisterType((*Request)(nil), "api.Request")
	proto.RegisterMapType((map[string]string)(nil), "api.Request.VarsEntry")
	proto.RegisterType((*Mutation)(nil), "api.Mutation")
	proto.RegisterType((*Response)(nil), "api.Response")
	proto.RegisterMapType((map[string]string)(nil), "api.Response.UidsEntry")
	proto.RegisterType((*TxnContext)(nil), "api.TxnContext")
	proto.RegisterType((*Latency)(nil), "api.Latency")
	proto.RegisterType((*LoginRequest)(nil), "api.LoginRequest")
	proto.RegisterType((*Jwt)(nil), "api.Jwt")
	proto.RegisterType((*Operation)(nil), "api.Operation")
	proto.RegisterType((*Payload)(nil), "api.Payload")
	proto.RegisterType((*Check)(nil), "api.Check")
	proto.RegisterType((*Version)(nil), "api.Version")
}
