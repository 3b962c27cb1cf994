package store

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/carusyte/stockpred/conf"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

//GCS uploads to a google cloud storage bucket. The storage.Client is created
//on first use and shared by concurrent uploads. Upload leaves existing
//objects untouched; Put can replace them.
type GCS struct {
	bucket      string
	credentials string
	useProxy    bool

	init                          sync.Once
	c                             *storage.Client
	e                             error
	origHTTPProxy, origHTTPsProxy string
}

//NewGCS creates a lazily initialized GCS uploader.
func NewGCS(bucket, credentials string, useProxy bool) *GCS {
	return &GCS{bucket: bucket, credentials: credentials, useProxy: useProxy}
}

//Client returns the storage.Client, creating it on the first call.
func (g *GCS) Client(ctx context.Context) (*storage.Client, error) {
	g.init.Do(func() {
		if g.useProxy && conf.Args.Network.Proxy != "" {
			// the storage client only honours proxies from the environment
			proxy := "socks5://" + conf.Args.Network.Proxy
			g.origHTTPProxy, g.origHTTPsProxy = os.Getenv("http_proxy"), os.Getenv("https_proxy")
			if g.e = os.Setenv("http_proxy", proxy); g.e != nil {
				return
			}
			if g.e = os.Setenv("https_proxy", proxy); g.e != nil {
				return
			}
		}
		var opts []option.ClientOption
		if g.credentials != "" {
			opts = append(opts, option.WithCredentialsFile(g.credentials))
		}
		g.c, g.e = storage.NewClient(ctx, opts...)
	})
	return g.c, errors.WithStack(g.e)
}

//Upload writes localFile to key unless the object exists already.
func (g *GCS) Upload(ctx context.Context, localFile, key string) error {
	return g.Put(ctx, localFile, key, false)
}

//Put writes localFile to key. An existing object is kept unless replace is set.
func (g *GCS) Put(ctx context.Context, localFile, key string, replace bool) error {
	client, e := g.Client(ctx)
	if e != nil {
		return errors.WithMessage(e, "failed to create gcs client")
	}
	tctx, cancel := context.WithTimeout(ctx, time.Duration(conf.Args.Storage.Timeout)*time.Second)
	defer cancel()
	obj := client.Bucket(g.bucket).Object(key)
	if !replace {
		if _, e = obj.Attrs(tctx); e == nil {
			log.Debugf("gs://%s/%s exists, skipped", g.bucket, key)
			return nil
		} else if e != storage.ErrObjectNotExist {
			return errors.Wrapf(e, "failed to check existence for %s", key)
		}
	}
	file, e := os.Open(localFile)
	if e != nil {
		return errors.WithStack(e)
	}
	defer file.Close()
	wc := obj.NewWriter(tctx)
	wc.ContentType = contentType(localFile)
	if _, e = io.Copy(wc, bufio.NewReader(file)); e != nil {
		wc.Close()
		return errors.Wrapf(e, "failed to upload %s", localFile)
	}
	return errors.Wrapf(wc.Close(), "failed to upload %s", localFile)
}

//Close releases the client and restores the proxy environment.
func (g *GCS) Close() (e error) {
	if g.useProxy && conf.Args.Network.Proxy != "" {
		os.Setenv("http_proxy", g.origHTTPProxy)
		os.Setenv("https_proxy", g.origHTTPsProxy)
	}
	if g.c == nil {
		return nil
	}
	return g.c.Close()
}
