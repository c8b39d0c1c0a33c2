package main

import "github.com/mcoot/partyrooms/internal/cli"

func main() {
	cli.Execute()
}
