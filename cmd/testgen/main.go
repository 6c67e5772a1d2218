package main

import "testgen/internal/cli"

func main() {
	cli.Execute()
}
