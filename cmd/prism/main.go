package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

// GLFW and GL calls must stay on the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
