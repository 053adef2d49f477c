package main

import (
	"context"
	"valuator-backend/cmd/valuation-cli/commands"
	"valuator-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "valuation-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
