package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/lancet-cli/cmd"
	"github.com/xkilldash9x/lancet-cli/internal/observability"
)

// Exit statuses: 0 clean, 1 failure, 2 attention required (a Confirmed
// critical or high finding exists). CI gates key off status 2.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()

	switch {
	case err == nil:
		return
	case errors.Is(err, cmd.ErrAttentionRequired):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
