package main

import "temporal-sync/cmd"

func main() {
	cmd.Execute()
}
