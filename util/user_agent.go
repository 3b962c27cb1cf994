package util

import (
	"math/rand"

	"github.com/carusyte/stockpred/conf"
)

var agentPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

//PickUserAgent picks a user agent string from the pool randomly.
func PickUserAgent() string {
	return agentPool[rand.Intn(len(agentPool))]
}

//UserAgent returns the user agent for outgoing requests: a random pick when
//rotation is enabled, otherwise the configured default.
func UserAgent() string {
	if conf.Args.Network.RotateAgent || conf.Args.Network.DefaultUserAgent == "" {
		return PickUserAgent()
	}
	return conf.Args.Network.DefaultUserAgent
}
