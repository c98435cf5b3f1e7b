package domain

// Result is the envelope returned by every pipeline run. Fields are filled in
// as stages succeed and survive a later failure.
type Result struct {
	Success       bool   `json:"success"`
	SessionID     string `json:"session_id,omitempty"`
	Filename      string `json:"filename,omitempty"`
	Transcription string `json:"transcription,omitempty"`
	LLMResponse   string `json:"llm_response,omitempty"`
	AudioURL      string `json:"audio_url,omitempty"`
	Error         string `json:"error,omitempty"`
	Message       string `json:"message,omitempty"`
}
