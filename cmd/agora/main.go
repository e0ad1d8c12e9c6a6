package main

import "github.com/agora-quant/agora/internal/cli"

func main() {
	cli.Execute()
}
