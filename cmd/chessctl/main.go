package main

import (
	"github.com/mcoot/chessbroker/internal/cli"
)

func main() {
	cli.Execute()
}
