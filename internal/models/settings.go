package models

type OutputMode string

const (
	// OutputAuto stores sessions next to the active scene file.
	OutputAuto OutputMode = "auto"
	// OutputFixed stores sessions under Settings.OutputFolder.
	OutputFixed OutputMode = "fixed"
)

// Settings is the persisted user configuration record. The whole record is
// rewritten on every save.
type Settings struct {
	OutputMode   OutputMode `json:"outputMode"`
	OutputFolder string     `json:"outputFolder,omitempty"`
	APIKey       string     `json:"apiKey,omitempty"`
	VertexAPIKey string     `json:"vertexApiKey,omitempty"`
	Provider     string     `json:"provider"`
	DevMode      bool       `json:"devMode"`
	ProxyURL     string     `json:"proxyUrl,omitempty"`
	UseGeminiAPI bool       `json:"useGeminiApi"`
	UseVertexAI  bool       `json:"useVertexAI"`
}

func DefaultSettings() Settings {
	return Settings{
		OutputMode:   OutputAuto,
		Provider:     "mock",
		UseGeminiAPI: true,
		UseVertexAI:  false,
	}
}

// Normalize fills empty enum fields with defaults.
func (s *Settings) Normalize() {
	if s.OutputMode != OutputFixed {
		s.OutputMode = OutputAuto
	}
	if s.Provider == "" {
		s.Provider = "mock"
	}
}
