package main

import (
	"context"
	"os"

	"famcal/internal/cli"
	appLog "famcal/internal/log"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		appLog.Error("famcal failed", err)
		os.Exit(1)
	}
}
