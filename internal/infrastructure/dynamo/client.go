package dynamo

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/visitsafe-api/internal/config"
	"github.com/visitsafe-api/internal/domain"
	"github.com/visitsafe-api/internal/infrastructure/awsconf"
)

// API is the subset of the DynamoDB client the repos use.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// NewClient creates a DynamoDB client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint so all traffic goes to the local instance.
func NewClient(ctx context.Context, cfg *config.Config) (*dynamodb.Client, error) {
	awsCfg, err := awsconf.Load(ctx, cfg, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}

	clientOpts := []func(*dynamodb.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}

	return dynamodb.NewFromConfig(awsCfg, clientOpts...), nil
}

// Handle lazily connects to DynamoDB on first use. Initialization is
// idempotent: the first successful connect wins and later calls reuse it; a
// failed attempt is retried by the next caller.
type Handle struct {
	mu      sync.Mutex
	api     API
	connect func(ctx context.Context) (API, error)
}

func NewHandle(connect func(ctx context.Context) (API, error)) *Handle {
	return &Handle{connect: connect}
}

// StaticHandle wraps an already-built client.
func StaticHandle(api API) *Handle {
	return &Handle{api: api}
}

var (
	defaultHandle     *Handle
	defaultHandleOnce sync.Once
)

// Default returns the process-wide handle. cfg is only read on the first call.
func Default(cfg *config.Config) *Handle {
	defaultHandleOnce.Do(func() {
		defaultHandle = NewHandle(func(ctx context.Context) (API, error) {
			return NewClient(ctx, cfg)
		})
	})
	return defaultHandle
}

// Client returns the connected client, connecting if needed. A failure is
// reported as domain.ErrUnavailable.
func (h *Handle) Client(ctx context.Context) (API, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.api != nil {
		return h.api, nil
	}
	if h.connect == nil {
		return nil, fmt.Errorf("dynamodb not configured: %w", domain.ErrUnavailable)
	}
	api, err := h.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("dynamodb init: %v: %w", err, domain.ErrUnavailable)
	}
	h.api = api
	return api, nil
}
