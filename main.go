package main

import "docgen/cmd"

func main() {
	cmd.Execute()
}
