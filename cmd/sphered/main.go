package main

import (
	"log/slog"
	"os"

	"github.com/InsulaLabs/sphere/runtime"
)

func main() {
	rt, err := runtime.New(os.Args[1:], "sphere.yaml")
	if err != nil {
		slog.Error("Failed to initialize runtime", "error", err)
		os.Exit(1)
	}

	if err := rt.Run(); err != nil {
		slog.Error("Runtime exited with error", "error", err)
		os.Exit(1)
	}
}
