//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/testutil"
)

func newTestClient(ctx context.Context, t *testing.T) (*S3Client, func()) {
	t.Helper()
	rc := testutil.NewRustFSContainer(ctx, t)

	client, err := NewS3Client(ctx, S3ClientConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "faqbot-test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, client.EnsureBucket(ctx))

	return client, func() { rc.Terminate(ctx) }
}

func TestS3Client_ArchiveAndFetch(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newTestClient(ctx, t)
	defer cleanup()

	require.NoError(t, client.ArchiveDocument(ctx, "hr-policy.md", "правила отпусков"))

	content, err := client.FetchDocument(ctx, "hr-policy.md")
	require.NoError(t, err)
	assert.Equal(t, "правила отпусков", content)

	// A new revision replaces the old one.
	require.NoError(t, client.ArchiveDocument(ctx, "hr-policy.md", "новые правила"))
	content, err = client.FetchDocument(ctx, "hr-policy.md")
	require.NoError(t, err)
	assert.Equal(t, "новые правила", content)
}

func TestS3Client_DeleteDocument(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newTestClient(ctx, t)
	defer cleanup()

	require.NoError(t, client.ArchiveDocument(ctx, "old.md", "устарело"))
	require.NoError(t, client.DeleteDocument(ctx, "old.md"))

	_, err := client.FetchDocument(ctx, "old.md")
	assert.Error(t, err)
}

func TestS3Client_EnsureBucket_Idempotent(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newTestClient(ctx, t)
	defer cleanup()

	assert.NoError(t, client.EnsureBucket(ctx))
}
