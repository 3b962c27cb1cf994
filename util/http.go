package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/carusyte/stockpred/conf"
	"github.com/pkg/errors"
	"github.com/ssgreg/repeat"
	"golang.org/x/net/proxy"
)

//HTTPError is returned for responses with a non-2xx status.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (h *HTTPError) Error() string {
	return fmt.Sprintf("http status %d from %s: %s", h.StatusCode, h.URL, h.Body)
}

//Temporary reports whether the request may succeed if retried.
func (h *HTTPError) Temporary() bool {
	return h.StatusCode == http.StatusTooManyRequests || h.StatusCode >= 500
}

//NewClient builds a http client with the given timeout, dialing through the
//configured socks5 proxy when conf.Args.Network.Proxy is set.
func NewClient(timeout time.Duration) (*http.Client, error) {
	if conf.Args.Network.Proxy == "" {
		return &http.Client{Timeout: timeout}, nil
	}
	dialer, e := proxy.SOCKS5("tcp", conf.Args.Network.Proxy, nil, proxy.Direct)
	if e != nil {
		log.Warnf("can't create socks5 proxy dialer: %+v", e)
		return nil, errors.WithStack(e)
	}
	tr := &http.Transport{}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		tr.DialContext = cd.DialContext
	} else {
		tr.Dial = dialer.Dial
	}
	return &http.Client{Timeout: timeout, Transport: tr}, nil
}

//HTTPGet issues a GET request and returns the response body. Network errors,
//429 and 5xx responses are retried up to retry times with jittered backoff.
func HTTPGet(ctx context.Context, link string, headers map[string]string, retry int) (body []byte, e error) {
	client, e := NewClient(time.Second * time.Duration(conf.Args.Network.HTTPTimeout))
	if e != nil {
		return nil, e
	}
	return HTTPGetWith(ctx, client, link, headers, retry)
}

//HTTPGetWith is HTTPGet using the provided client.
func HTTPGetWith(ctx context.Context, client *http.Client, link string, headers map[string]string,
	retry int) (body []byte, e error) {
	if retry < 1 {
		retry = 1
	}
	var last error
	op := func(c int) error {
		if err := ctx.Err(); err != nil {
			last = err
			return repeat.HintStop(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
		if err != nil {
			last = errors.WithStack(err)
			return repeat.HintStop(err)
		}
		req.Header.Set("Accept", "application/json,text/html,application/xhtml+xml,"+
			"application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")
		for k, hv := range headers {
			req.Header.Set(k, hv)
		}
		if len(req.Header.Get("User-Agent")) == 0 {
			req.Header.Set("User-Agent", UserAgent())
		}

		res, err := client.Do(req)
		if err != nil {
			log.Debugf("http communication error: [%+v] url=%s, retrying %d ...", err, link, c+1)
			last = errors.WithStack(err)
			return repeat.HintTemporary(err)
		}
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		if err != nil {
			log.Debugf("failed to read response body: [%+v] url=%s, retrying %d ...", err, link, c+1)
			last = errors.WithStack(err)
			return repeat.HintTemporary(err)
		}
		if res.StatusCode < 200 || res.StatusCode > 299 {
			he := &HTTPError{URL: link, StatusCode: res.StatusCode, Body: abbreviate(string(data), 256)}
			last = he
			if he.Temporary() {
				log.Debugf("%+v, retrying %d ...", he, c+1)
				return repeat.HintTemporary(he)
			}
			return repeat.HintStop(he)
		}
		body = data
		return nil
	}

	e = repeat.Repeat(
		repeat.FnWithCounter(op),
		repeat.StopOnSuccess(),
		repeat.LimitMaxTries(retry),
		repeat.WithDelay(
			repeat.FullJitterBackoff(200*time.Millisecond).WithMaxDelay(2*time.Second).Set(),
		),
	)
	if e != nil && last != nil {
		e = last
	}
	return
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
