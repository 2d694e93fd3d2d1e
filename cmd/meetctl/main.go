package main

import "meetcore/internal/cli"

func main() {
	cli.Execute()
}
