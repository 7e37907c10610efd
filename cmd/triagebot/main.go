package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/pthm/triagebot/internal/cmd"
	"github.com/pthm/triagebot/internal/version"
)

func main() {
	if err := fang.Execute(context.Background(), cmd.RootCmd, fang.WithVersion(version.Short()), fang.WithCommit(version.Commit)); err != nil {
		os.Exit(1)
	}
}
