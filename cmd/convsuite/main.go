package main

import "github.com/convsuite/convsuite/internal/cli"

func main() {
	cli.Execute()
}
