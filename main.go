package main

import (
	"os"

	"github.com/paletten-gigant/graphrag-chat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
