package learn

import (
	"github.com/carusyte/stockpred/global"
)

var log = global.Log
