// Package bridge carries command envelopes between the UI surface and the
// engine.
package bridge

import (
	"encoding/json"

	"airender/internal/models"
)

// Inbound command types.
const (
	CmdListNamedViews    = "listNamedViews"
	CmdCapturePreview    = "capturePreview"
	CmdGenerate          = "generate"
	CmdCancel            = "cancel"
	CmdGetSettings       = "getSettings"
	CmdSetSettings       = "setSettings"
	CmdOpenFolder        = "openFolder"
	CmdGetHistory        = "getHistory"
	CmdLoadHistoryImages = "loadHistoryImages"
	CmdToggleFavorite    = "toggleFavorite"
)

// Outbound message types.
const (
	MsgNamedViews       = "namedViews"
	MsgPreviewImage     = "previewImage"
	MsgGenerateProgress = "generateProgress"
	MsgGenerateResult   = "generateResult"
	MsgError            = "error"
	MsgSettings         = "settings"
	MsgHistoryUpdate    = "historyUpdate"
	MsgHistoryImages    = "historyImages"
	MsgFavoriteStatus   = "favoriteStatus"
)

// Progress stages.
const (
	StageCapture   = "capture"
	StageGenerate  = "generate"
	StageSave      = "save"
	StageCancelled = "cancelled"
)

// Envelope is an inbound command. Data is decoded by the handler for Type.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is an outbound message.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type CapturePreviewData struct {
	Source      string `json:"source"`
	NamedView   string `json:"namedView,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Transparent bool   `json:"transparent"`
	LongEdge    int    `json:"longEdge,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	CaptureMode string `json:"captureMode,omitempty"`
}

type OpenFolderData struct {
	Path string `json:"path"`
}

type LoadHistoryImagesData struct {
	Paths          []string `json:"paths"`
	ScreenshotPath string   `json:"screenshotPath,omitempty"`
}

type ToggleFavoriteData struct {
	HistoryID string `json:"historyId"`
}

type NamedViewsPayload struct {
	Items []string `json:"items"`
}

type PreviewImagePayload struct {
	Base64 string `json:"base64"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type ProgressPayload struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Percent *int   `json:"percent,omitempty"`
}

type ResultMeta struct {
	Provider  string `json:"provider"`
	Model     string `json:"model,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Timestamp string `json:"timestamp"`
}

type GenerateResultPayload struct {
	Images []string   `json:"images"`
	Paths  []string   `json:"paths"`
	Meta   ResultMeta `json:"meta"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type HistoryUpdatePayload struct {
	Items       []models.HistoryItem `json:"items"`
	FavoriteIDs []string             `json:"favoriteIds"`
}

type HistoryImagesPayload struct {
	Images     []string `json:"images"`
	Screenshot string   `json:"screenshot,omitempty"`
}

type FavoriteStatusPayload struct {
	HistoryID  string `json:"historyId"`
	IsFavorite bool   `json:"isFavorite"`
}

// Progress builds a generateProgress message.
func Progress(stage, message string, percent int) Message {
	return Message{Type: MsgGenerateProgress, Data: ProgressPayload{Stage: stage, Message: message, Percent: &percent}}
}

// Error builds an error message.
func Error(message, details string) Message {
	return Message{Type: MsgError, Data: ErrorPayload{Message: message, Details: details}}
}
