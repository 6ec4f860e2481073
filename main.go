package main

import "github.com/dev7ba/mempool-server/cmd"

func main() {
	cmd.Execute()
}
