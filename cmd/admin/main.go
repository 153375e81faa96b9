package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/growkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/growkeeper/internal/server/admin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := admin.NewRootCmd(admin.OpenPostgres)
	root.Version = buildinfo.Version

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
