package main

import "github.com/notargets/mbcfd/cmd"

func main() {
	cmd.Execute()
}
