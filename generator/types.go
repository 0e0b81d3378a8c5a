package generator

import "time"

// SystemConfig maps tag names from the system-prompt document to their
// bodies. The keys read here are "system" and "rules".
type SystemConfig map[string]string

// Request is the input to one generation.
type Request struct {
	Route      string
	UserPrompt string
	System     SystemConfig
	Bundle     Bundle
	// Now stamps the tools note; zero means time.Now().
	Now time.Time
}
