package main

import "github.com/leadgen/phantom-cli/cmd"

func main() {
	cmd.Execute()
}
