package main

import "FreeTunes/cmd"

func main() {
	cmd.Execute()
}
