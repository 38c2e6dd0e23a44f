// Command typepaste generates typed models from sample data.
//
//	typepaste generate -l go --name User samples/*.json
//	typepaste check --type user.schema.json response.json
//	curl -s https://api.example.com/user/1 | typepaste generate -l zod
//	typepaste serve    # MCP server on stdio
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/usestring/typepaste/internal/config"
	"github.com/usestring/typepaste/pkg/types"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Defaults come from the environment, optionally seeded from ./.env; see
	// internal/config for every variable. Flags override them per invocation.
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "typepaste: reading .env: %v\n", err)
		os.Exit(1)
	}
	cmd := newRootCmd(config.Load())
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "typepaste: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for problems the caller can fix by changing input or flags
// and 1 for everything else.
func exitCode(err error) int {
	var pipeErr *types.Error
	if errors.As(err, &pipeErr) && pipeErr.Recoverable() {
		return 2
	}
	var usage *usageError
	if errors.As(err, &usage) {
		return 2
	}
	return 1
}
