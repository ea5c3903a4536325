package main

import "github.com/mcoot/chessrooms/internal/cli"

func main() {
	cli.Execute()
}
