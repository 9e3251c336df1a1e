package main

import "trailbook/cmd/trailbook-cli/cmd"

func main() {
	cmd.Execute()
}
