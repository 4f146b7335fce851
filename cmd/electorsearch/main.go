package main

import (
	"electorsearch/cmd/electorsearch/commands"
	"electorsearch/internal/components/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()
	commands.ExecuteContext(ctx)
}
