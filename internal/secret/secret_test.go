package secret

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pribylovaa/identity-service/internal/autherr"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/stretchr/testify/require"
)

// flaky отдаёт ошибку первые failures вызовов, затем value.
type flaky struct {
	failures int32
	value    []byte
	err      error
	calls    atomic.Int32
	delay    time.Duration
}

func (f *flaky) SigningSecret(ctx context.Context, _ string) ([]byte, error) {
	n := f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if n <= f.failures {
		if f.err != nil {
			return nil, f.err
		}
		return nil, errors.New("temporary failure")
	}

	return f.value, nil
}

func TestStatic(t *testing.T) {
	t.Parallel()

	v, err := NewStatic("s3cr3t").SigningSecret(context.Background(), "ignored")
	require.NoError(t, err)
	require.Equal(t, []byte("s3cr3t"), v)

	_, err = NewStatic("").SigningSecret(context.Background(), "x")
	require.ErrorIs(t, err, ErrEmpty)
}

type fakeSM struct {
	out *secretsmanager.GetSecretValueOutput
	err error
	got string
}

func (f *fakeSM) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.got = aws.ToString(in.SecretId)
	return f.out, f.err
}

func TestAWS_SigningSecret(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	api := &fakeSM{out: &secretsmanager.GetSecretValueOutput{SecretString: aws.String("from-string")}}
	v, err := NewAWSWithClient(api).SigningSecret(ctx, "identity/jwt")
	require.NoError(t, err)
	require.Equal(t, "from-string", string(v))
	require.Equal(t, "identity/jwt", api.got)

	api = &fakeSM{out: &secretsmanager.GetSecretValueOutput{SecretBinary: []byte{1, 2, 3}}}
	v, err = NewAWSWithClient(api).SigningSecret(ctx, "bin")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, v)

	api = &fakeSM{out: &secretsmanager.GetSecretValueOutput{}}
	_, err = NewAWSWithClient(api).SigningSecret(ctx, "empty")
	require.ErrorIs(t, err, ErrEmpty)

	api = &fakeSM{err: &types.ResourceNotFoundException{Message: aws.String("nope")}}
	_, err = NewAWSWithClient(api).SigningSecret(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("throttled")
	api = &fakeSM{err: boom}
	_, err = NewAWSWithClient(api).SigningSecret(ctx, "x")
	require.ErrorIs(t, err, boom)
}

func TestNewAWS_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no credentials")
	}

	_, err := NewAWS(context.Background(), "eu-central-1")
	require.Error(t, err)
}

func TestCached_FetchesOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	p := &flaky{value: []byte("key"), delay: 20 * time.Millisecond}
	c := NewCached(p, WithBackoff(time.Millisecond))

	const n = 16
	results := make([][]byte, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.SigningSecret(context.Background(), "jwt")
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, []byte("key"), results[i])
	}

	require.EqualValues(t, 1, p.calls.Load())
}

func TestCached_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	p := &flaky{failures: 2, value: []byte("key")}
	c := NewCached(p, WithAttempts(3), WithBackoff(time.Millisecond))

	v, err := c.SigningSecret(context.Background(), "jwt")
	require.NoError(t, err)
	require.Equal(t, []byte("key"), v)
	require.EqualValues(t, 3, p.calls.Load())
}

// TestCached_FailureIsNotCached — после исчерпания попыток следующий вызов
// снова идёт к провайдеру.
func TestCached_FailureIsNotCached(t *testing.T) {
	t.Parallel()

	p := &flaky{failures: 2, value: []byte("key")}
	c := NewCached(p, WithAttempts(2), WithBackoff(time.Millisecond))

	_, err := c.SigningSecret(context.Background(), "jwt")
	require.ErrorIs(t, err, autherr.ErrSecret)
	require.ErrorIs(t, err, autherr.ErrInternal)
	require.EqualValues(t, 2, p.calls.Load())

	v, err := c.SigningSecret(context.Background(), "jwt")
	require.NoError(t, err)
	require.Equal(t, []byte("key"), v)
	require.EqualValues(t, 3, p.calls.Load())

	_, err = c.SigningSecret(context.Background(), "jwt")
	require.NoError(t, err)
	require.EqualValues(t, 3, p.calls.Load())
}

func TestCached_NotFoundIsNotRetried(t *testing.T) {
	t.Parallel()

	p := &flaky{failures: 10, err: ErrNotFound}
	c := NewCached(p, WithAttempts(5), WithBackoff(time.Millisecond))

	_, err := c.SigningSecret(context.Background(), "jwt")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, autherr.ErrSecret)
	require.EqualValues(t, 1, p.calls.Load())
}

func TestCached_EmptyValueRejected(t *testing.T) {
	t.Parallel()

	p := &flaky{value: nil}
	c := NewCached(p, WithBackoff(time.Millisecond))

	_, err := c.SigningSecret(context.Background(), "jwt")
	require.ErrorIs(t, err, ErrEmpty)
}

func TestCached_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &flaky{failures: 10}
	c := NewCached(p, WithAttempts(5), WithBackoff(time.Second))

	_, err := c.SigningSecret(ctx, "jwt")
	require.Error(t, err)
	require.ErrorIs(t, err, autherr.ErrSecret)
}
