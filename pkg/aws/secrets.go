package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretGetter resolves a named secret to its string value.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// SecretValueAPI is the part of the Secrets Manager client the credentials
// loader calls.
type SecretValueAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsClient loads gateway and tracking credentials, such as the
// pix/CREDENTIALS bundle, from Secrets Manager. Each secret is fetched at
// most once per process; concurrent callers for the same name wait on the
// first fetch.
type SecretsClient struct {
	api    SecretValueAPI
	mu     sync.Mutex
	values map[string]string
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return NewSecretsClientWithAPI(secretsmanager.NewFromConfig(cfg))
}

func NewSecretsClientWithAPI(api SecretValueAPI) *SecretsClient {
	return &SecretsClient{api: api, values: map[string]string{}}
}

func (s *SecretsClient) GetSecret(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.values[name]; ok {
		return v, nil
	}

	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(name)})
	if err != nil {
		return "", fmt.Errorf("read secret %s: %w", name, err)
	}
	value := sdkaws.ToString(out.SecretString)
	if value == "" {
		return "", fmt.Errorf("secret %s has no string value", name)
	}

	s.values[name] = value
	return value, nil
}

// GetSecretMap reads a credentials bundle stored as a flat JSON object.
// Non-string values (a numeric PIX_EXPIRES_IN_DAYS, say) keep their JSON
// text; null entries are dropped.
func GetSecretMap(ctx context.Context, sg SecretGetter, name string) (map[string]string, error) {
	raw, err := sg.GetSecret(ctx, name)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		if err == nil {
			err = fmt.Errorf("got %s", raw)
		}
		return nil, fmt.Errorf("secret %s is not a JSON object: %w", name, err)
	}

	creds := make(map[string]string, len(fields))
	for key, value := range fields {
		switch {
		case string(value) == "null":
		case len(value) > 0 && value[0] == '"':
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return nil, fmt.Errorf("secret %s: field %s: %w", name, key, err)
			}
			creds[key] = s
		default:
			creds[key] = string(value)
		}
	}
	return creds, nil
}
