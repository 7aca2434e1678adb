package secret

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Интеграционные тесты Object: поднимают MinIO через testcontainers-go.
//
// Запуск:
//   GO_TEST_INTEGRATION=1 go test ./internal/secret -run Object -v -count=1

const (
	minioUser     = "root"
	minioPassword = "rootpass"
	minioBucket   = "secrets"
)

func startMinio(t *testing.T) (ObjectConfig, *mclient.Client) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image: "docker.io/minio/minio:latest",
		Env: map[string]string{
			"MINIO_ROOT_USER":     minioUser,
			"MINIO_ROOT_PASSWORD": minioPassword,
		},
		Cmd:          []string{"server", "/data"},
		ExposedPorts: []string{"9000/tcp"},
		WaitingFor:   wait.ForListeningPort("9000/tcp").WithStartupTimeout(60 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	admin, err := mclient.New(host+":"+port.Port(), &mclient.Options{
		Creds:  credentials.NewStaticV4(minioUser, minioPassword, ""),
		Secure: false,
	})
	require.NoError(t, err)
	require.NoError(t, admin.MakeBucket(ctx, minioBucket, mclient.MakeBucketOptions{Region: "us-east-1"}))

	return ObjectConfig{
		Endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
		AccessKey: minioUser,
		SecretKey: minioPassword,
		Bucket:    minioBucket,
	}, admin
}

func TestObject_SigningSecret(t *testing.T) {
	cfg, admin := startMinio(t)
	ctx := context.Background()

	body := []byte("object-secret\n")
	_, err := admin.PutObject(ctx, minioBucket, "jwt", bytes.NewReader(body), int64(len(body)), mclient.PutObjectOptions{})
	require.NoError(t, err)

	p, err := NewObject(ctx, cfg)
	require.NoError(t, err)

	v, err := p.SigningSecret(ctx, "jwt")
	require.NoError(t, err)
	require.Equal(t, "object-secret", string(v))

	_, err = p.SigningSecret(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNewObject_MissingBucket(t *testing.T) {
	cfg, _ := startMinio(t)

	cfg.Bucket = "nope"
	_, err := NewObject(context.Background(), cfg)
	require.Error(t, err)
}
