package main

import "github.com/samuelfneumann/lunarlearn/cmd"

// main entry point to all the commands
func main() {
	cmd.Execute()
}
