package main

import (
	"utac-backend/cmd/utac-cli/commands"
	"utac-backend/internal/components/lifecycle"
)

func main() {
	ctx, stop := lifecycle.RunContext()
	defer stop()
	commands.ExecuteContext(ctx)
}
