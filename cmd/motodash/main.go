package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"motodash/cmd/motodash/commands"
)

// @title Motodash API
// @version 1.0
// @BasePath /
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
