package main

import "github.com/emberquiz/voicecapture/internal/cli"

func main() {
	cli.Execute()
}
