package main

import "github.com/mcoot/matchlobby/internal/cli"

func main() {
	cli.Execute()
}
