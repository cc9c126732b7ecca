package main

import "github.com/kozaktomas/recall/cmd"

func main() {
	cmd.Execute()
}
