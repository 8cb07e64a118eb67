package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"

	errs "firemaps/pkg/errors"
)

func main() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(errs.ExitCode(err))
	}
}
