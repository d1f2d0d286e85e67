package dto

type ChatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type ChatResponse struct {
	Text string `json:"text"`
}

type PodcastResponse struct {
	Script   string `json:"script"`
	AudioURL string `json:"audio_url"`
}
