package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
)

// ReadObject downloads an object and returns its full content.
func ReadObject(ctx context.Context, c Client, bucket, object string) ([]byte, error) {
	reader, err := c.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", object, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", object, err)
	}
	return data, nil
}

// WriteObject uploads data under object with the given content type.
func WriteObject(ctx context.Context, c Client, bucket, object, contentType string, data []byte) error {
	_, err := c.PutObject(ctx, bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", object, err)
	}
	return nil
}

// ListKeys returns the sorted object keys under prefix whose name ends with
// one of the given extensions. No extensions means every object.
func ListKeys(ctx context.Context, c Client, bucket, prefix string, extensions ...string) ([]string, error) {
	var keys []string
	for obj := range c.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %q: %w", prefix, obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		if len(extensions) > 0 && !hasExtension(obj.Key, extensions) {
			continue
		}
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

func hasExtension(key string, extensions []string) bool {
	lower := strings.ToLower(key)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
