package main

import (
	"github.com/carusyte/stockpred/cmd"
)

func main() {
	cmd.Execute()
}
