package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const workbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type objectClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Archive keeps copies of exported and imported workbooks in a bucket.
type S3Archive struct {
	client objectClient
	bucket string
	prefix string
}

func NewS3Archive(client *s3.Client, bucket, prefix string) *S3Archive {
	return &S3Archive{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Key returns the object key a document name is stored under.
func (a *S3Archive) Key(name string) string {
	if a.prefix == "" {
		return name
	}
	return path.Join(a.prefix, name)
}

// Archive uploads doc under the archive prefix.
func (a *S3Archive) Archive(ctx context.Context, name string, doc []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(a.Key(name)),
		Body:          bytes.NewReader(doc),
		ContentType:   aws.String(workbookContentType),
		ContentLength: aws.Int64(int64(len(doc))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to s3: %w", name, err)
	}

	return nil
}

func (a *S3Archive) Delete(ctx context.Context, name string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.Key(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from s3: %w", name, err)
	}

	return nil
}
