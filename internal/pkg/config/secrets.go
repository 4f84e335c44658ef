// internal/pkg/config/secrets.go
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Secret keys read from the production secret bundle
const (
	SecretDBPassword      = "DB_PASSWORD"
	SecretRedisPassword   = "REDIS_PASSWORD"
	SecretImageAccessKey  = "IMAGE_BUCKET_ACCESS_KEY_ID"
	SecretImageSecretKey  = "IMAGE_BUCKET_SECRET_ACCESS_KEY"
	defaultSecretCacheTTL = 5 * time.Minute
)

// SecretsManager resolves secret values by key
type SecretsManager interface {
	GetSecret(ctx context.Context, key string) (string, error)
	// GetSecrets returns the subset of keys it holds; absent keys are not an error.
	GetSecrets(ctx context.Context, keys []string) (map[string]string, error)
	RefreshSecrets(ctx context.Context) error
}

var (
	_ SecretsManager = (*AWSSecretsManager)(nil)
	_ SecretsManager = (*EnvSecretsManager)(nil)
)

// SecretsClient is the subset of the Secrets Manager API used here
type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManager reads one JSON secret bundle and keeps it for a short TTL
type AWSSecretsManager struct {
	client     SecretsClient
	secretName string
	ttl        time.Duration
	logger     *slog.Logger

	mu        sync.RWMutex
	bundle    map[string]string
	fetchedAt time.Time
}

// NewAWSSecretsManager builds a client from the default AWS credential chain
func NewAWSSecretsManager(ctx context.Context, region, secretName string, logger *slog.Logger) (*AWSSecretsManager, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewAWSSecretsManagerWithClient(secretsmanager.NewFromConfig(cfg), secretName, logger), nil
}

// NewAWSSecretsManagerWithClient wraps an existing client
func NewAWSSecretsManagerWithClient(client SecretsClient, secretName string, logger *slog.Logger) *AWSSecretsManager {
	return &AWSSecretsManager{
		client:     client,
		secretName: secretName,
		ttl:        defaultSecretCacheTTL,
		logger:     logger.With(slog.String("component", "secrets"), slog.String("secret_name", secretName)),
	}
}

// GetSecret returns one key of the bundle
func (sm *AWSSecretsManager) GetSecret(ctx context.Context, key string) (string, error) {
	bundle, err := sm.load(ctx)
	if err != nil {
		return "", err
	}
	val, ok := bundle[key]
	if !ok {
		return "", fmt.Errorf("secret key %s not found in %s", key, sm.secretName)
	}
	return val, nil
}

// GetSecrets returns the requested keys that the bundle holds
func (sm *AWSSecretsManager) GetSecrets(ctx context.Context, keys []string) (map[string]string, error) {
	bundle, err := sm.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := bundle[key]; ok {
			out[key] = val
		}
	}
	return out, nil
}

// RefreshSecrets drops the cached bundle and fetches it again
func (sm *AWSSecretsManager) RefreshSecrets(ctx context.Context) error {
	sm.mu.Lock()
	sm.bundle = nil
	sm.mu.Unlock()

	_, err := sm.load(ctx)
	return err
}

func (sm *AWSSecretsManager) load(ctx context.Context) (map[string]string, error) {
	sm.mu.RLock()
	if sm.bundle != nil && time.Since(sm.fetchedAt) < sm.ttl {
		bundle := sm.bundle
		sm.mu.RUnlock()
		return bundle, nil
	}
	sm.mu.RUnlock()

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.bundle != nil && time.Since(sm.fetchedAt) < sm.ttl {
		return sm.bundle, nil
	}

	sm.logger.InfoContext(ctx, "fetching secret bundle")
	result, err := sm.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(sm.secretName),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret value: %w", err)
	}
	if result.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", sm.secretName)
	}

	var bundle map[string]string
	if err := json.Unmarshal([]byte(*result.SecretString), &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse secret %s: %w", sm.secretName, err)
	}

	sm.bundle = bundle
	sm.fetchedAt = time.Now()
	return bundle, nil
}

// EnvSecretsManager reads secrets straight from the environment
type EnvSecretsManager struct{}

// NewEnvSecretsManager creates an environment-backed secrets manager
func NewEnvSecretsManager() *EnvSecretsManager {
	return &EnvSecretsManager{}
}

// GetSecret returns the variable named key
func (EnvSecretsManager) GetSecret(_ context.Context, key string) (string, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return "", fmt.Errorf("environment variable %s not set", key)
	}
	return val, nil
}

// GetSecrets returns the non-empty variables among keys
func (EnvSecretsManager) GetSecrets(_ context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			out[key] = val
		}
	}
	return out, nil
}

// RefreshSecrets is a no-op
func (EnvSecretsManager) RefreshSecrets(context.Context) error { return nil }
