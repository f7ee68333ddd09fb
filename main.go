package main

import "omi-sync/cmd"

func main() {
	cmd.Execute()
}
