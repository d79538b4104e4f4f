// Package clientpool routes Secrets Manager lookups to region-bound clients.
// One client is built lazily per distinct region and reused for every secret
// in that region; construction uses the ambient AWS credential chain.
package clientpool

import (
	"context"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	dserrors "github.com/systmms/secretsinit/internal/errors"
	"github.com/systmms/secretsinit/internal/logging"
)

// SecretsManagerAPI is the slice of the Secrets Manager client the resolver
// needs. Narrow on purpose so tests can inject fakes.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Factory builds a client bound to one region.
type Factory func(ctx context.Context, region string) (SecretsManagerAPI, error)

// Pool caches one client per region. Safe for concurrent use; resolution
// tasks for the same region share a handle.
type Pool struct {
	mu      sync.Mutex
	clients map[string]SecretsManagerAPI
	factory Factory
	logger  *logging.Logger

	// LocalStack / testing overrides
	endpoint        string
	accessKeyID     string
	secretAccessKey string
}

// Option is a functional option for configuring the pool
type Option func(*Pool)

// WithFactory sets a custom client factory (for testing)
func WithFactory(f Factory) Option {
	return func(p *Pool) {
		p.factory = f
	}
}

// WithEndpoint points every client at a custom endpoint with static
// credentials, for LocalStack or integration testing.
func WithEndpoint(endpoint, accessKeyID, secretAccessKey string) Option {
	return func(p *Pool) {
		p.endpoint = endpoint
		p.accessKeyID = accessKeyID
		p.secretAccessKey = secretAccessKey
	}
}

// New creates a pool. Without options, clients come from the default AWS
// config loader.
func New(logger *logging.Logger, opts ...Option) *Pool {
	p := &Pool{
		clients: make(map[string]SecretsManagerAPI),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.factory == nil {
		p.factory = p.defaultFactory
	}
	return p
}

// ForRegion returns the cached client for region, building it on first use.
// At most one client exists per region per run.
func (p *Pool) ForRegion(ctx context.Context, region string) (SecretsManagerAPI, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if client, ok := p.clients[region]; ok {
		return client, nil
	}

	p.logger.Debug("Creating Secrets Manager client for region %s", region)
	client, err := p.factory(ctx, region)
	if err != nil {
		return nil, dserrors.ClientInitError{Region: region, Err: err}
	}
	p.clients[region] = client
	return client, nil
}

// defaultFactory builds a real client from the ambient credential chain.
func (p *Pool) defaultFactory(ctx context.Context, region string) (SecretsManagerAPI, error) {
	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if p.accessKeyID != "" && p.secretAccessKey != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(p.accessKeyID, p.secretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, err
	}

	var clientOpts []func(*secretsmanager.Options)
	if p.endpoint != "" {
		endpoint := p.endpoint
		clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	return secretsmanager.NewFromConfig(cfg, clientOpts...), nil
}
