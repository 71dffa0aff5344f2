package main

import "github.com/umbrellacorp/usiop/internal/cli"

func main() {
	cli.Execute()
}
