package main

import "github.com/coursetta-labs/coursetta/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
