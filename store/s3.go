package store

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/carusyte/stockpred/conf"
	"github.com/pkg/errors"
)

//S3 uploads to an S3 compatible bucket.
type S3 struct {
	client *s3.Client
	bucket string
}

//NewS3 loads the default aws configuration for region. A non-empty endpoint
//targets an S3 compatible service such as localstack or minio.
func NewS3(ctx context.Context, bucket, region, endpoint string, pathStyle bool) (*S3, error) {
	if bucket == "" {
		return nil, errors.New("S3 bucket not configured, set storage.bucket or S3_BUCKET")
	}
	cfg, e := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if e != nil {
		return nil, errors.Wrap(e, "failed to load aws configuration")
	}
	c := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &S3{client: c, bucket: bucket}, nil
}

//Upload puts localFile at key.
func (s *S3) Upload(ctx context.Context, localFile, key string) error {
	f, e := os.Open(localFile)
	if e != nil {
		return errors.WithStack(e)
	}
	defer f.Close()
	tctx, cancel := context.WithTimeout(ctx, time.Duration(conf.Args.Storage.Timeout)*time.Second)
	defer cancel()
	_, e = s.client.PutObject(tctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(localFile)),
		Metadata: map[string]string{
			"created": time.Now().UTC().Format(time.RFC3339),
		},
	})
	return errors.Wrapf(e, "failed to upload %s to s3://%s/%s", localFile, s.bucket, key)
}
