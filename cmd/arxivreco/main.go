package main

import (
	"arxivreco/cmd/handlers"
	"arxivreco/internal/logger"
)

func main() {
	logger.Init() // Initialize the logger
	handlers.Execute()
}
