package main

import "github.com/Felis-Linux/fpkg/cmd"

var version = "0.2"

func main() {
	cmd.Execute(version)
}
