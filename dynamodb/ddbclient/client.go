// Package ddbclient opens the store client described by a ddbconfig.Config:
// an AWS SDK client for a DynamoDB endpoint, or the embedded store.
package ddbclient

import (
	"context"

	"github.com/acksell/carpenter/dynamodb/ddbconfig"
	"github.com/acksell/carpenter/dynamodb/ddberr"
	"github.com/acksell/carpenter/dynamodb/ddbiface"
	"github.com/acksell/carpenter/dynamodb/ddblog"
	"github.com/acksell/carpenter/dynamodb/ddbstore"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Handle is an open store client. Close releases the embedded store, if any.
type Handle struct {
	ddbiface.Client
	// Target describes where requests go, for log lines.
	Target string
	closer func() error
}

func (h *Handle) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer()
}

// Open returns a client for cfg.
func Open(ctx context.Context, cfg ddbconfig.Config, logger ddblog.ZapLogger) (*Handle, error) {
	const op = "ddbclient.Open"
	if cfg.Embedded() {
		store, err := ddbstore.New(ddbstore.StoreOptions{
			Path:     cfg.DBPath,
			InMemory: cfg.InMemory,
			Logger:   logger.Badger(),
		})
		if err != nil {
			return nil, ddberr.New(ddberr.StoreUnavailable, op, err)
		}
		target := "embedded:" + cfg.DBPath
		if cfg.InMemory || cfg.DBPath == "" {
			target = "embedded:memory"
		}
		logger.Debug("opened embedded store", "target", target)
		return &Handle{Client: store, Target: target, closer: store.Close}, nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithRetryMaxAttempts(cfg.MaxAttempts),
	)
	if err != nil {
		return nil, ddberr.New(ddberr.StoreUnavailable, op, err)
	}
	endpoint := cfg.EndpointURL()
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	logger.Debug("using dynamodb endpoint", "endpoint", endpoint, "region", cfg.Region, "maxAttempts", cfg.MaxAttempts)
	return &Handle{Client: client, Target: endpoint}, nil
}
