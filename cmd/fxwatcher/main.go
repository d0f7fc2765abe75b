package main

import (
	"github.com/joho/godotenv"

	"fx-rate-alerts/internal/cli"
)

func main() {
	// .env is optional; environment variables win over file values
	_ = godotenv.Load()

	cli.Execute()
}
