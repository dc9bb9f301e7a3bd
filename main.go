package main

import (
	"os"

	"appraisal-analytics/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
