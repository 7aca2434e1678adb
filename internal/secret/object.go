package secret

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// maxObjectSize — секрет длиннее 64 KiB считается ошибкой конфигурации.
const maxObjectSize = 64 << 10

// ObjectConfig — доступ к S3-совместимому хранилищу.
type ObjectConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Object читает секрет как объект бакета; имя секрета — ключ объекта.
type Object struct {
	bucket string
	client *mclient.Client
}

// NewObject создаёт клиент MinIO и проверяет наличие бакета.
func NewObject(ctx context.Context, cfg ObjectConfig) (*Object, error) {
	const op = "secret.object.NewObject"

	// Endpoint допускается как host:port или как URL со схемой.
	endpoint := cfg.Endpoint
	secure := false

	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.Bucket)
	}

	return &Object{bucket: cfg.Bucket, client: client}, nil
}

// SigningSecret читает объект name; пробелы и переводы строк по краям отбрасываются.
func (o *Object) SigningSecret(ctx context.Context, name string) ([]byte, error) {
	const op = "secret.object.SigningSecret"

	obj, err := o.client.GetObject(ctx, o.bucket, name, mclient.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, objectErr(err))
	}
	defer obj.Close()

	b, err := io.ReadAll(io.LimitReader(obj, maxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, objectErr(err))
	}

	if len(b) > maxObjectSize {
		return nil, fmt.Errorf("%s: object %q exceeds %d bytes", op, name, maxObjectSize)
	}

	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmpty)
	}

	return b, nil
}

func objectErr(err error) error {
	if mclient.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrNotFound
	}

	return err
}
