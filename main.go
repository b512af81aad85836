package main

import "github.com/llehouerou/drift/internal/cli"

func main() {
	cli.Execute()
}
