package main

import "criteria-diff/cmd"

func main() {
	cmd.Execute()
}
