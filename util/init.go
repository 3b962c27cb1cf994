package util

import (
	"github.com/carusyte/stockpred/global"
)

var log = global.Log
