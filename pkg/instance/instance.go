package instance

import "os"

// GetID returns the running instance identifier. Heroku-style platforms set
// DYNO; anything else falls back to a local default.
func GetID() string {
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	return "local"
}
