package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"temporal-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// FetchExtract downloads an extract object to a temporary file and returns
// its path together with a cleanup function removing it. Upstream extraction
// jobs drop their output into the bucket; a sync run pulls it down before
// parsing.
func FetchExtract(ctx context.Context, client storage.Client, bucket, object string) (string, func(), error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return "", nil, fmt.Errorf("checking bucket %s: %w", bucket, err)
	}
	if !exists {
		return "", nil, fmt.Errorf("extract bucket %s does not exist", bucket)
	}

	obj, err := client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return "", nil, fmt.Errorf("fetching extract %s: %w", object, err)
	}
	defer obj.Close()

	tmp, err := os.CreateTemp("", "extract-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, obj); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("downloading extract %s: %w", object, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}

	return tmp.Name(), cleanup, nil
}
