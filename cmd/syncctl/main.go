package main

import "hrflow/internal/cli"

func main() {
	cli.Execute()
}
