package domain

import "time"

// Version describes a published client release. Only the newest published row is served.
type Version struct {
	ID          string     `json:"id"`
	Version     string     `json:"version"`
	Notes       string     `json:"notes,omitempty"`
	DownloadURL string     `json:"download_url,omitempty"`
	Mandatory   bool       `json:"mandatory"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
