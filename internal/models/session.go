package models

import "time"

// SessionRecord is the metadata.json content of one persisted session.
// Favorite state is never stored here.
type SessionRecord struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Prompt         string    `json:"prompt"`
	Source         string    `json:"source"`
	NamedView      string    `json:"namedView,omitempty"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Provider       string    `json:"provider"`
	Model          string    `json:"model,omitempty"`
	Mode           Tier      `json:"mode,omitempty"`
	OutputPaths    []string  `json:"outputPaths"`
	ScreenshotPath string    `json:"screenshotPath,omitempty"`

	Dir string `json:"-"`
}

// SessionMeta describes the request that produced a session.
type SessionMeta struct {
	Prompt    string
	Source    string
	NamedView string
	Width     int
	Height    int
	Provider  string
	Model     string
	Mode      Tier
}

// HistoryItem is one entry of a historyUpdate message.
type HistoryItem struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Prompt         string    `json:"prompt"`
	Source         string    `json:"source"`
	NamedView      string    `json:"namedView,omitempty"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Thumbnails     []string  `json:"thumbnails"`
	Paths          []string  `json:"paths"`
	Provider       string    `json:"provider"`
	Model          string    `json:"model,omitempty"`
	Mode           Tier      `json:"mode,omitempty"`
	ScreenshotPath string    `json:"screenshotPath,omitempty"`
	IsFavorite     bool      `json:"isFavorite"`
}
