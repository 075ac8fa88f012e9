package main

import (
	"os"

	"github.com/wbeardall/schedtools-go/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
