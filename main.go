// Package main is the entry point for the tahlil Turkish text analysis
// service.
package main

import (
	"context"
	"fmt"
	"os"

	"tahlil/bootstrap"
	"tahlil/cmd"
	_ "tahlil/docs"
)

// run initializes and starts the service.
func run() error {
	ctx := context.Background()

	app, err := bootstrap.NewApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Start(); err != nil {
		app.Shutdown()
		return fmt.Errorf("failed to start application: %w", err)
	}

	app.WaitForShutdown()
	app.Shutdown()

	return nil
}

func main() {
	// Model management CLI
	if len(os.Args) > 1 && os.Args[1] == "model" {
		// Strip "model" from os.Args since the command already knows it's
		// the model command
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)

		modelCmd := cmd.NewModelCmd()
		if err := modelCmd.Execute(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}
