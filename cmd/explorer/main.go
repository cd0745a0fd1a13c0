// Package main provides the explorer command-line tool.
package main

import (
	"github.com/JonMunkholm/suicide-explorer/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()
	cli.Execute()
}
