package secrets

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/pkg/errors"
)

// API is the slice of the Secrets Manager client the provider uses.
type API interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Provider fetches the signing secret once and serves the cached value for
// the rest of the process lifetime. Failures are not cached: the next call
// retries the fetch.
type Provider struct {
	api      API
	secretID string

	mu     sync.RWMutex
	cached []byte
}

func NewProvider(api API, secretID string) *Provider {
	return &Provider{
		api:      api,
		secretID: secretID,
	}
}

func (p *Provider) Secret(ctx context.Context) ([]byte, error) {
	p.mu.RLock()
	cached := p.cached
	p.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil { // another caller won the fetch race
		return p.cached, nil
	}

	out, err := p.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.secretID),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[secrets.Provider] GetSecretValue")
	}
	value := aws.ToString(out.SecretString)
	if value == "" {
		return nil, errors.Errorf("[secrets.Provider] secret %q has no string value", p.secretID)
	}

	p.cached = []byte(value)
	return p.cached, nil
}

// Static is a fixed secret, used by tests and local runs.
type Static []byte

func (s Static) Secret(context.Context) ([]byte, error) {
	return []byte(s), nil
}
