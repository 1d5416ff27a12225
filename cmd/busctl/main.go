package main

import "github.com/nfrund/typedbus/cmd/busctl/cmd"

func main() {
	cmd.Execute()
}
