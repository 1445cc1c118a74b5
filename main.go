package main

import "slotbook/cmd"

func main() {
	cmd.Execute()
}
