package main

import "github.com/DrCloy/web-spice-sub001/cmd/spice/cmd"

func main() {
	cmd.Execute()
}
