package main

import (
	"github.com/joho/godotenv"

	"github.com/azukiapp/tasks-service/cmd"
)

func main() {
	// tokens come from the environment; a .env file is optional
	_ = godotenv.Load()

	cmd.Execute()
}
