package tinygraph

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassifyError(t *testing.T) {
	require.NoError(t, classifyError(nil))

	err := classifyError(status.Error(codes.Aborted, "Transaction has been aborted. Please retry"))
	assert.True(t, errors.Is(err, ErrAborted))

	err = classifyError(errors.New("Transaction is too old"))
	assert.True(t, errors.Is(err, ErrAborted))

	err = classifyError(status.Error(codes.Internal, "Please retry operation: opIndexing is in progress"))
	var retriable *RetriableError
	assert.True(t, errors.As(err, &retriable))

	err = classifyError(status.Error(codes.Unavailable, "connection refused"))
	var connErr *ConnectionError
	assert.True(t, errors.As(err, &connErr))

	// Anything unknown keeps its identity.
	plain := status.Error(codes.InvalidArgument, "while lexing: bad query")
	assert.True(t, errors.Is(classifyError(plain), plain))
}

func TestClassifyErrorKeepsCancellation(t *testing.T) {
	assert.Equal(t, context.Canceled, classifyError(context.Canceled))
	assert.Equal(t, context.DeadlineExceeded, classifyError(context.DeadlineExceeded))

	grpcCanceled := status.Error(codes.Canceled, "context canceled")
	assert.Equal(t, grpcCanceled, classifyError(grpcCanceled))
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(ErrAborted))
	assert.True(t, IsConflict(errors.Wrap(ErrAborted, "commit")))
	assert.True(t, IsConflict(&RetriableError{Err: errors.New("Please retry")}))

	assert.False(t, IsConflict(nil))
	assert.False(t, IsConflict(ErrFinished))
	assert.False(t, IsConflict(ErrReadOnly))
	assert.False(t, IsConflict(&ConnectionError{Err: errors.New("connection refused")}))
}

func TestIsJWTExpired(t *testing.T) {
	assert.False(t, isJWTExpired(nil))
	assert.False(t, isJWTExpired(errors.New("some other failure")))
	assert.True(t, isJWTExpired(status.Error(codes.Unauthenticated, "Token is expired")))
}
