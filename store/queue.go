package store

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carusyte/stockpred/conf"
	"github.com/ssgreg/repeat"
)

var retryDelay = 500 * time.Millisecond

type uploadJob struct {
	localFile string
	key       string
	replace   bool
}

//replacer is implemented by uploaders that keep existing objects unless told
//to replace them.
type replacer interface {
	Put(ctx context.Context, localFile, key string, replace bool) error
}

//Queue uploads files in the background with a pool of workers.
//Failed uploads are retried, then logged; they never fail the caller.
type Queue struct {
	up     Uploader
	ctx    context.Context
	ch     chan *uploadJob
	wg     sync.WaitGroup
	done   int32
	failed int32
}

//NewQueue starts workers goroutines uploading through up.
func NewQueue(ctx context.Context, up Uploader, workers, capacity int) *Queue {
	if workers < 1 {
		workers = 1
	}
	q := &Queue{up: up, ctx: ctx, ch: make(chan *uploadJob, capacity)}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

//Start creates the configured uploader and its queue.
func Start(ctx context.Context) (*Queue, error) {
	up, e := New(ctx)
	if e != nil {
		return nil, e
	}
	s := conf.Args.Storage
	return NewQueue(ctx, up, s.Workers, s.UploadQueue), nil
}

//Submit queues localFile for upload to key. Stores that keep existing
//objects leave a present key untouched; use it for dated, write-once files.
func (q *Queue) Submit(localFile, key string) {
	q.ch <- &uploadJob{localFile: localFile, key: key}
}

//Replace queues localFile for upload to key, overwriting any existing object.
//Files rewritten on every run under a fixed key go through Replace.
func (q *Queue) Replace(localFile, key string) {
	q.ch <- &uploadJob{localFile: localFile, key: key, replace: true}
}

func (q *Queue) put(job *uploadJob) error {
	if r, ok := q.up.(replacer); ok {
		return r.Put(q.ctx, job.localFile, job.key, job.replace)
	}
	return q.up.Upload(q.ctx, job.localFile, job.key)
}

//Close waits for pending uploads and returns the number of uploaded and failed files.
func (q *Queue) Close() (done, failed int) {
	close(q.ch)
	q.wg.Wait()
	if c, ok := q.up.(interface{ Close() error }); ok {
		if e := c.Close(); e != nil {
			log.Warnf("failed to close uploader: %+v", e)
		}
	}
	return int(atomic.LoadInt32(&q.done)), int(atomic.LoadInt32(&q.failed))
}

func (q *Queue) work() {
	defer q.wg.Done()
	for job := range q.ch {
		op := func(c int) error {
			log.Debugf("#%d uploading %s to %s", c, job.localFile, job.key)
			if e := q.put(job); e != nil {
				if q.ctx.Err() != nil {
					return repeat.HintStop(e)
				}
				log.Warnf("#%d failed to upload %s: %+v", c, job.localFile, e)
				return repeat.HintTemporary(e)
			}
			return nil
		}
		e := repeat.Repeat(
			repeat.FnWithCounter(op),
			repeat.StopOnSuccess(),
			repeat.LimitMaxTries(conf.Args.DefaultRetry),
			repeat.WithDelay(
				repeat.FullJitterBackoff(retryDelay).WithMaxDelay(15*time.Second).Set(),
			),
		)
		if e != nil {
			atomic.AddInt32(&q.failed, 1)
			log.Errorf("failed to upload file %s: %+v", job.localFile, e)
			continue
		}
		atomic.AddInt32(&q.done, 1)
		log.Printf("%s uploaded", job.key)
	}
}

//Key joins a folder and the base name of file into an object key.
func Key(folder, file string) string {
	return strings.Trim(folder, "/") + "/" + filepath.Base(file)
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
