package main

import "github.com/adambarczewski00/telemetry-board/internal/cli"

func main() {
	cli.Execute()
}
