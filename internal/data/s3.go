package data

import (
	"bytes"
	"context"
	"errors"
	"io"

	"mediashare/internal/biz"
	"mediashare/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// s3Store keeps stored objects in an S3-compatible bucket. The code is
// the object key and the MIME type rides along as object metadata.
type s3Store struct {
	client *minio.Client
	bucket string
	log    *log.Helper
}

// NewS3Store connects to the configured S3 endpoint and ensures the
// bucket exists.
func NewS3Store(c *conf.S3, logger log.Logger) (biz.ObjectStore, error) {
	helper := log.NewHelper(logger)

	client, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure: c.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, c.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
		helper.Infof("created bucket %s", c.Bucket)
	}

	return &s3Store{client: client, bucket: c.Bucket, log: helper}, nil
}

func (s *s3Store) Get(ctx context.Context, key string) (*biz.StoredObject, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, err
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, err
	}
	return &biz.StoredObject{
		Key:         key,
		ContentType: stat.ContentType,
		Data:        data,
	}, nil
}

func (s *s3Store) Put(ctx context.Context, obj *biz.StoredObject) error {
	_, err := s.client.PutObject(ctx, s.bucket, obj.Key,
		bytes.NewReader(obj.Data), int64(len(obj.Data)),
		minio.PutObjectOptions{ContentType: obj.ContentType},
	)
	return err
}

func (s *s3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	return errors.As(err, &resp) && resp.Code == "NoSuchKey"
}
