package main

import (
	"context"
	"errors"
	"log"
	"os"

	"eris/internal/config"
	"eris/internal/daemonrun"
)

func main() {
	cfg, path, exists, err := config.Load(os.Getenv(configEnv))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, runOptions(path, exists, os.Getenv(logLevelEnv))); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Fatalf("erisd: %v", err)
	}
}
