package e2e_test

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sagarc03/s3proxy"
)

const (
	minioImage    = "minio/minio:RELEASE.2025-04-22T22-12-26Z"
	minioUser     = "s3proxy-e2e"
	minioPassword = "s3proxy-e2e-secret"
)

var (
	minioOnce      sync.Once
	minioContainer testcontainers.Container
	minioEndpoint  string
	minioErr       error
)

// getSharedMinio returns the endpoint of a MinIO container shared by every
// test in the package. Tests are skipped when Docker is unavailable.
func getSharedMinio(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	minioOnce.Do(func() {
		ctx := context.Background()

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        minioImage,
				Cmd:          []string{"server", "/data"},
				ExposedPorts: []string{"9000/tcp"},
				Env: map[string]string{
					"MINIO_ROOT_USER":     minioUser,
					"MINIO_ROOT_PASSWORD": minioPassword,
				},
				WaitingFor: wait.ForHTTP("/minio/health/live").
					WithPort("9000/tcp").
					WithStartupTimeout(60 * time.Second),
			},
			Started: true,
		})
		if err != nil {
			minioErr = fmt.Errorf("start minio container: %w", err)
			return
		}
		minioContainer = container

		endpoint, err := container.Endpoint(ctx, "http")
		if err != nil {
			minioErr = fmt.Errorf("minio endpoint: %w", err)
			return
		}
		minioEndpoint = endpoint
	})

	if minioErr != nil {
		t.Skipf("skipping: could not start MinIO (is docker running?): %v", minioErr)
	}

	return minioEndpoint
}

func terminateSharedMinio() {
	if minioContainer == nil {
		return
	}
	if err := minioContainer.Terminate(context.Background()); err != nil {
		fmt.Printf("failed to terminate minio container: %s\n", err)
	}
}

func minioCredentials() s3proxy.CredentialSet {
	return s3proxy.CredentialSet{
		AccessKeyID:     minioUser,
		SecretAccessKey: minioPassword,
	}
}

// newSeedClient builds an SDK client used to prepare buckets for a test.
func newSeedClient(t *testing.T, endpoint string) *s3.Client {
	t.Helper()

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(minioUser, minioPassword, ""),
		),
	)
	require.NoError(t, err, "load sdk config")

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
}

// seedBucket creates bucket and uploads objects keyed by object key.
func seedBucket(t *testing.T, endpoint, bucket string, objects map[string]seedObject) {
	t.Helper()

	ctx := context.Background()
	client := newSeedClient(t, endpoint)

	_, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	require.NoError(t, err, "create bucket %s", bucket)

	for key, obj := range objects {
		input := &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(obj.Body),
		}
		if obj.ContentType != "" {
			input.ContentType = aws.String(obj.ContentType)
		}
		if len(obj.Metadata) > 0 {
			input.Metadata = obj.Metadata
		}
		_, err := client.PutObject(ctx, input)
		require.NoError(t, err, "put object %s", key)
	}
}

type seedObject struct {
	Body        []byte
	ContentType string
	Metadata    map[string]string
}
