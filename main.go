package main

import "github.com/kasuganosora/gjtracker/cli"

func main() {
	cli.Execute()
}
