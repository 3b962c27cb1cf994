package getd

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/bitly/go-hostpool"
	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/util"
	"github.com/pkg/errors"
)

var (
	hpLock  sync.Mutex
	hpool   hostpool.HostPool
	hpHosts string
)

//yahooPool returns the host pool over conf.Args.Network.YahooHosts,
//rebuilding it whenever the configured hosts change.
func yahooPool() hostpool.HostPool {
	hpLock.Lock()
	defer hpLock.Unlock()
	hosts := conf.Args.Network.YahooHosts
	key := strings.Join(hosts, ",")
	if hpool == nil || key != hpHosts {
		if hpool != nil {
			hpool.Close()
		}
		hpool = hostpool.New(hosts)
		hpHosts = key
	}
	return hpool
}

//yahooGet requests path from one of the Yahoo hosts and marks the host
//with the outcome, so failing hosts are avoided for a while.
func yahooGet(ctx context.Context, path string, query url.Values, retry int) (body []byte, e error) {
	if len(conf.Args.Network.YahooHosts) == 0 {
		return nil, errors.New("no yahoo hosts configured")
	}
	r := yahooPool().Get()
	link := strings.TrimRight(r.Host(), "/") + path
	if len(query) > 0 {
		link += "?" + query.Encode()
	}
	log.Debugf("GET %s", link)
	body, e = util.HTTPGet(ctx, link, nil, retry)
	r.Mark(e)
	return
}
