package domain

// Renderer is a DLNA media renderer that can back the media plugin.
type Renderer struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	Address      string       `json:"address"`
	IsAudioOnly  bool         `json:"is_audio_only"`
	Capabilities Capabilities `json:"capabilities"`
}

type Capabilities struct {
	SupportsVideo      bool         `json:"supports_video"`
	SupportsHLSM3U8URL bool         `json:"supports_hls_m3u8_url"`
	Limitations        []Limitation `json:"limitations"`
}

type Limitation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
