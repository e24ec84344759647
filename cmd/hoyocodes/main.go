package main

import (
	"context"
	"hoyocodes-backend/cmd/hoyocodes/commands"
	"hoyocodes-backend/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext(context.Background()))
}
