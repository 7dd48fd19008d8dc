// Package types provides shared types for the server package and its subpackages.
package types

import (
	"time"

	"github.com/nomis52/signupboard/buildinfo"
)

// ServerProperties holds metadata about the running server instance.
type ServerProperties struct {
	Build     buildinfo.Properties `json:"build"`
	StartedAt time.Time            `json:"started_at"`
	Hostname  string               `json:"hostname"`
	APIURL    string               `json:"api_url"`
	// Sessions is the number of visitor pages currently kept.
	Sessions   int       `json:"sessions"`
	ReloadedAt time.Time `json:"reloaded_at"`
	// NextReload is set when reloads are scheduled.
	NextReload *time.Time `json:"next_reload,omitempty"`
}
