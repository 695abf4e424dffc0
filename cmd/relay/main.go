package main

import (
	"os"

	"alideal-affiliate-relay/cmd/relay/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
