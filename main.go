package main

import "github.com/AbdelzaherMuhammed/hypervel/cmd"

func main() {
	cmd.Execute()
}
