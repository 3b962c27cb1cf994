package store

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/global"
	"github.com/carusyte/stockpred/util"
	"github.com/pkg/errors"
)

var log = global.Log

//Uploader copies a local file to object storage under key.
type Uploader interface {
	Upload(ctx context.Context, localFile, key string) error
}

//New creates the uploader selected by conf.Args.Storage.Backend.
func New(ctx context.Context) (Uploader, error) {
	s := conf.Args.Storage
	switch s.Backend {
	case conf.LOCAL:
		return &Local{Dir: s.LocalDir}, nil
	case conf.S3:
		return NewS3(ctx, s.Bucket, s.Region, s.Endpoint, s.PathStyle)
	case conf.GCS:
		return NewGCS(s.Bucket, s.Credentials, s.UseProxy), nil
	default:
		return Nop{}, nil
	}
}

//Nop discards uploads.
type Nop struct{}

//Upload does nothing.
func (Nop) Upload(ctx context.Context, localFile, key string) error {
	log.Debugf("storage disabled, %s not uploaded", localFile)
	return nil
}

//Local copies files under Dir, keeping the key as relative path.
type Local struct {
	Dir string
}

//Upload copies localFile to Dir/key.
func (l *Local) Upload(ctx context.Context, localFile, key string) (e error) {
	if e = ctx.Err(); e != nil {
		return e
	}
	dest := filepath.Join(l.Dir, filepath.FromSlash(key))
	if e = util.MkDirAll(filepath.Dir(dest), 0755); e != nil {
		return e
	}
	src, e := os.Open(localFile)
	if e != nil {
		return errors.WithStack(e)
	}
	defer src.Close()
	dst, e := os.Create(dest)
	if e != nil {
		return errors.WithStack(e)
	}
	defer func() {
		if err := dst.Close(); e == nil && err != nil {
			e = errors.WithStack(err)
		}
	}()
	_, e = io.Copy(dst, src)
	return errors.WithStack(e)
}
