package main

import "clusterform/internal/cli"

func main() {
	cli.Execute()
}
