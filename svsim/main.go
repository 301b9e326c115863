package main

import "github.com/hdlab/svsim/svsim/cmd"

func main() {
	cmd.Execute()
}
