// Package main implements the entry point for the taskdeck API server,
// a multi-tenant task tracker with shared collaborator access.
package main

import (
	"log"
)

// main loads configuration, wires the application together and runs the
// HTTP server until it receives a shutdown signal.
func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.cleanup()

	if err := app.run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
