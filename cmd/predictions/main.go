// Package main provides the predictions CLI, which serves the predictions
// API and runs one-off store, get and delete operations.
package main

import "github.com/BagasRo/predictions/cmd/predictions/commands"

func main() {
	commands.Execute(Version)
}
