package ddberr

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(TableNotFound, "DeleteTable", errors.New("boom")))

	assert.True(t, errors.Is(err, TableNotFound))
	assert.False(t, errors.Is(err, TableAlreadyExists))
	assert.Equal(t, TableNotFound, KindOf(err))
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: InvalidArgument}, "InvalidArgument"},
		{&Error{Kind: InvalidArgument, Op: "Build"}, "Build: InvalidArgument"},
		{&Error{Kind: InvalidArgument, Err: errors.New("bad")}, "InvalidArgument: bad"},
		{Errorf(StoreReadFailure, "Scan", "page %d", 3), "Scan: StoreReadFailure: page 3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestClassify(t *testing.T) {
	msg := "msg"
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"resource in use", &types.ResourceInUseException{Message: &msg}, TableAlreadyExists},
		{"resource not found", &types.ResourceNotFoundException{Message: &msg}, TableNotFound},
		{"validation", &smithy.GenericAPIError{Code: "ValidationException", Message: msg}, InvalidSchema},
		{"other api error", &smithy.GenericAPIError{Code: "ThrottlingException"}, StoreWriteFailure},
		{
			"operation without response",
			&smithy.OperationError{ServiceID: "DynamoDB", OperationName: "CreateTable", Err: errors.New("dial tcp: connection refused")},
			StoreUnavailable,
		},
		{"net error", &net.OpError{Op: "dial", Err: errors.New("refused")}, StoreUnavailable},
		{"unknown", errors.New("weird"), StoreWriteFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("op", tt.err, StoreWriteFailure)
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Classify("op", nil, Unknown))
	})

	t.Run("tagged error unchanged", func(t *testing.T) {
		orig := New(InvalidArgument, "Build", errors.New("x"))
		assert.Same(t, orig, Classify("op", orig, StoreUnavailable))
	})
}
