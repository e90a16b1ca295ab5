// Command mrcar is the operational CLI for the quotation backend: plate
// resolution, pricing breakdowns, and bulk registry imports against the same
// SQLite store the server uses.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/dryanez/MrcarCotizacion/cmd/mrcar/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	commands.ExecuteContext(ctx)
}
