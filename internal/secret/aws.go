package secret

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretsManagerAPI — используемая часть клиента Secrets Manager.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWS читает секрет из AWS Secrets Manager.
type AWS struct {
	api SecretsManagerAPI
}

// loadDefaultAWSConfig подменяется в тестах.
var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// NewAWS создаёт клиент по стандартной цепочке учётных данных AWS.
func NewAWS(ctx context.Context, region string) (*AWS, error) {
	const op = "secret.aws.NewAWS"

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewAWSWithClient(secretsmanager.NewFromConfig(cfg)), nil
}

// NewAWSWithClient оборачивает готовый клиент.
func NewAWSWithClient(api SecretsManagerAPI) *AWS {
	return &AWS{api: api}
}

// SigningSecret возвращает SecretString, а если его нет — SecretBinary.
func (a *AWS) SigningSecret(ctx context.Context, name string) ([]byte, error) {
	const op = "secret.aws.SigningSecret"

	out, err := a.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var nf *types.ResourceNotFoundException
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case aws.ToString(out.SecretString) != "":
		return []byte(aws.ToString(out.SecretString)), nil
	case len(out.SecretBinary) > 0:
		return append([]byte(nil), out.SecretBinary...), nil
	default:
		return nil, fmt.Errorf("%s: %w", op, ErrEmpty)
	}
}
