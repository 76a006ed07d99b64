package main

import (
	"context"

	"ronin-scraper/cmd/ronin-cli/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
