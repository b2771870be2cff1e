package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/bitrise-io/go-utils/retry"
	"github.com/bitrise-io/go-utils/v2/log"
)

const (
	defaultS3Retries   = 3
	defaultS3RetryWait = 5 * time.Second
	fileNameMetadata   = "filename"
)

// S3StoreParams ...
type S3StoreParams struct {
	Region          string
	Bucket          string
	Prefix          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	NumRetries      int
	RetryWait       time.Duration
}

// S3API is the part of the S3 client the store uses.
type S3API interface {
	manager.DownloadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Store reads binary data from an S3 compatible bucket, the way a workflow
// host in external binary data mode stores it.
type S3Store struct {
	client     S3API
	downloader *manager.Downloader
	bucket     string
	prefix     string
	numRetries int
	retryWait  time.Duration
	logger     log.Logger
}

// NewS3Store creates a store from static or default AWS credentials.
func NewS3Store(ctx context.Context, params S3StoreParams, logger log.Logger) (*S3Store, error) {
	if params.Bucket == "" {
		return nil, fmt.Errorf("bucket must not be empty")
	}

	cfg, err := loadAWSConfig(ctx, params.Region, params.AccessKeyID, params.SecretAccessKey, logger)
	if err != nil {
		return nil, fmt.Errorf("load aws credentials: %w", err)
	}

	client := s3.NewFromConfig(*cfg, func(o *s3.Options) {
		if params.Endpoint != "" {
			o.BaseEndpoint = aws.String(params.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3StoreWithClient(client, params, logger), nil
}

// NewS3StoreWithClient ...
func NewS3StoreWithClient(client S3API, params S3StoreParams, logger log.Logger) *S3Store {
	numRetries := params.NumRetries
	if numRetries <= 0 {
		numRetries = defaultS3Retries
	}
	retryWait := params.RetryWait
	if retryWait <= 0 {
		retryWait = defaultS3RetryWait
	}

	return &S3Store{
		client:     client,
		downloader: manager.NewDownloader(client),
		bucket:     params.Bucket,
		prefix:     params.Prefix,
		numRetries: numRetries,
		retryWait:  retryWait,
		logger:     logger,
	}
}

// Get downloads the object stored for id.
func (s *S3Store) Get(ctx context.Context, id string) (*Object, error) {
	key := path.Join(s.prefix, id)

	var head *s3.HeadObjectOutput
	err := retry.Times(uint(s.numRetries)).Wait(s.retryWait).TryWithAbort(func(attempt uint) (error, bool) {
		out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var apiError smithy.APIError
			if errors.As(err, &apiError) {
				switch apiError.(type) {
				case *types.NotFound, *types.NoSuchKey:
					return fmt.Errorf("%s: %w", key, ErrBinaryNotFound), true
				}
			}
			s.logger.Debugf("head object %s (attempt %d): %s", key, attempt+1, err)
			return fmt.Errorf("head object: %w", err), false
		}

		head = out
		return nil, true
	})
	if err != nil {
		return nil, err
	}

	buf := manager.NewWriteAtBuffer(make([]byte, 0, aws.ToInt64(head.ContentLength)))
	err = retry.Times(uint(s.numRetries)).Wait(s.retryWait).TryWithAbort(func(attempt uint) (error, bool) {
		if _, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}); err != nil {
			s.logger.Debugf("download object %s (attempt %d): %s", key, attempt+1, err)
			return fmt.Errorf("download object: %w", err), false
		}
		return nil, true
	})
	if err != nil {
		return nil, err
	}

	data := buf.Bytes()
	return &Object{
		Body:     io.NopCloser(bytes.NewReader(data)),
		FileName: head.Metadata[fileNameMetadata],
		MimeType: aws.ToString(head.ContentType),
		Size:     int64(len(data)),
	}, nil
}

func loadAWSConfig(ctx context.Context, region, accessKeyID, secretKey string, logger log.Logger) (*aws.Config, error) {
	if region == "" {
		return nil, fmt.Errorf("region must not be empty")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	if accessKeyID != "" && secretKey != "" {
		logger.Debugf("aws credentials provided, using them...")
		opts = append(opts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config, %v", err)
	}

	return &cfg, nil
}
