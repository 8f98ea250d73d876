package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Secure    bool
}

// MinioArchive stores a copy of every saved style document in an S3
// compatible bucket, one object per revision.
type MinioArchive struct {
	log    *zap.SugaredLogger
	client *minio.Client
	bucket string
}

func NewMinioArchive(log *zap.SugaredLogger, cfg Config) (*MinioArchive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	return &MinioArchive{log: log, client: client, bucket: cfg.Bucket}, nil
}

// ObjectName is the key of a revision document: <workspace>/<layer>/<time>_<id>.sld
func ObjectName(rev domain.StyleRevision) string {
	layerPath := strings.ReplaceAll(rev.Layer, ":", "/")
	name := fmt.Sprintf("%s_%s.sld", rev.Created.UTC().Format("20060102T150405Z"), rev.ID)
	return path.Join("styles", layerPath, name)
}

func (a *MinioArchive) Store(ctx context.Context, rev domain.StyleRevision) error {
	data := []byte(rev.SldBody)
	info, err := a.client.PutObject(ctx, a.bucket, ObjectName(rev), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/vnd.ogc.sld+xml",
		UserMetadata: map[string]string{
			"layer":  rev.Layer,
			"style":  rev.StyleName,
			"author": rev.Author,
		},
	})
	if err != nil {
		return fmt.Errorf("archiving style revision: %w", err)
	}
	a.log.Debugw("style archived", "bucket", info.Bucket, "key", info.Key, "size", info.Size)
	return nil
}

// EnsureBucket creates the archive bucket when missing.
func (a *MinioArchive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("checking archive bucket: %w", err)
	}
	if exists {
		return nil
	}
	return a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{})
}
