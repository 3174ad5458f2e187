package main

import "weld/cmd"

func main() {
	cmd.Execute()
}
