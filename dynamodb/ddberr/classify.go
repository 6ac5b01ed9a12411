package ddberr

import (
	"errors"
	"net"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// Classify tags a store client error with a Kind.
// Errors already carrying a kind are returned unchanged. Service errors that
// don't map to a specific kind get fallback.
func Classify(op string, err error, fallback Kind) error {
	if err == nil {
		return nil
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return err
	}
	return New(kindFor(err, fallback), op, err)
}

func kindFor(err error, fallback Kind) Kind {
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		return TableAlreadyExists
	}
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return TableNotFound
	}
	var tableNotFound *types.TableNotFoundException
	if errors.As(err, &tableNotFound) {
		return TableNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ValidationException":
			return InvalidSchema
		case "ResourceInUseException":
			return TableAlreadyExists
		case "ResourceNotFoundException":
			return TableNotFound
		}
		return fallback
	}

	// An operation error without a service response never reached the store.
	var opErr *smithy.OperationError
	if errors.As(err, &opErr) {
		return StoreUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return StoreUnavailable
	}
	return fallback
}
