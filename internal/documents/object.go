package documents

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStoreOptions configures an S3-compatible bucket.
type ObjectStoreOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Secure    bool
}

// ObjectFetcher reads documents from an S3-compatible bucket. The object
// key is the document filename.
type ObjectFetcher struct {
	client *minio.Client
	bucket string
}

// NewObjectFetcher creates a fetcher backed by a minio client.
func NewObjectFetcher(opts ObjectStoreOptions) (*ObjectFetcher, error) {
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object store client: %w", err)
	}
	return &ObjectFetcher{client: client, bucket: opts.Bucket}, nil
}

// Fetch opens the object. GetObject is lazy, so the object is stat'ed to
// surface missing keys and credential errors before anything is streamed.
func (f *ObjectFetcher) Fetch(ctx context.Context, doc Document) (*Blob, error) {
	obj, err := f.client.GetObject(ctx, f.bucket, doc.Filename, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("opening %s/%s: %w", f.bucket, doc.Filename, err)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, fmt.Errorf("reading %s/%s: %w", f.bucket, doc.Filename, err)
	}
	return &Blob{Body: obj, Size: info.Size, ContentType: info.ContentType}, nil
}
