// Package main provides the bookmood CLI.
package main

import "github.com/mesh-intelligence/bookmood/internal/cli"

func main() {
	cli.Execute()
}
