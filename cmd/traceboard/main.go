package main

import (
	"os"

	"github.com/yuqie6/TraceBoard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
