package types

// Chat

type ChatRequest struct {
	SessionId string `json:"sessionId"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionId string        `json:"sessionId"`
	Text      string        `json:"text"`
	Emotion   string        `json:"emotion"`
	Metadata  ReplyMetadata `json:"metadata"`
}

type ReplyMetadata struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	LatencyMs    int64  `json:"latencyMs"`
	TokensUsed   int    `json:"tokensUsed"`
	UsedFallback bool   `json:"usedFallback"`
	Emergency    bool   `json:"emergency,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Emotion analysis

type EmotionRequest struct {
	Text string `json:"text"`
}

type EmotionResponse struct {
	PrimaryEmotion string             `json:"primaryEmotion"`
	Confidence     float64            `json:"confidence"`
	Emotions       map[string]float64 `json:"emotions"`
	Sentiment      EmotionSentiment   `json:"sentiment"`
	ModelUsed      string             `json:"modelUsed"`
	ProcessingMs   int64              `json:"processingMs"`
}

type EmotionSentiment struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

// Provider status

type ProviderStatus struct {
	Id         string `json:"id"`
	Configured bool   `json:"configured"`
	Breaker    string `json:"breaker"`
}

type AIStatusResponse struct {
	Providers []ProviderStatus `json:"providers"`
	Order     []string         `json:"order"`
}

type BreakerSnapshot struct {
	Provider          string `json:"provider"`
	State             string `json:"state"`
	Requests          int    `json:"requests"`
	Failures          int    `json:"failures"`
	ErrorPct          int    `json:"errorPct"`
	ErrorThresholdPct int    `json:"errorThresholdPct"`
	VolumeThreshold   int    `json:"volumeThreshold"`
	ResetTimeoutSec   int    `json:"resetTimeoutSec"`
	OpenedAt          string `json:"openedAt,omitempty"`
}

type BreakersResponse struct {
	Breakers []BreakerSnapshot `json:"breakers"`
}

type ResetBreakerRequest struct {
	Provider string `path:"provider"`
}

type ResetBreakerResponse struct {
	Provider string `json:"provider"`
	State    string `json:"state"`
}

// Proactive engagement

type ProactiveConfig struct {
	Enabled             bool `json:"enabled"`
	IntervalMinutes     int  `json:"intervalMinutes"`
	InactivityThreshold int  `json:"inactivityThreshold"`
	MaxMessagesPerDay   int  `json:"maxMessagesPerDay"`
}

type UpdateProactiveConfigRequest struct {
	Enabled             *bool `json:"enabled,omitempty"`
	IntervalMinutes     *int  `json:"intervalMinutes,omitempty"`
	InactivityThreshold *int  `json:"inactivityThreshold,omitempty"`
	MaxMessagesPerDay   *int  `json:"maxMessagesPerDay,omitempty"`
}

type ProactiveConfigResponse struct {
	Config  ProactiveConfig `json:"config"`
	Running bool            `json:"running"`
}

type ProactiveActionResponse struct {
	Success bool `json:"success"`
	Running bool `json:"running"`
}

// Sessions

type CreateSessionRequest struct {
	CharacterName        string          `json:"characterName"`
	CharacterDescription string          `json:"characterDescription,omitempty"`
	PersonalityPreset    string          `json:"personalityPreset,omitempty"`
	Personality          *PersonalityData `json:"personality,omitempty"`
	CurrentMood          string          `json:"currentMood,omitempty"`
	StoryWorld           string          `json:"storyWorld,omitempty"`
	CharacterBackground  string          `json:"characterBackground,omitempty"`
	HasMission           bool            `json:"hasMission,omitempty"`
	CurrentMission       string          `json:"currentMission,omitempty"`
	UseRealTime          *bool           `json:"useRealTime,omitempty"`
	TimeSetting          string          `json:"timeSetting,omitempty"`
	Examples             []DialogueExample `json:"examples,omitempty"`
}

type PersonalityData struct {
	Energy          int `json:"energy"`
	Friendliness    int `json:"friendliness"`
	Humor           int `json:"humor"`
	Professionalism int `json:"professionalism"`
	Creativity      int `json:"creativity"`
	Empathy         int `json:"empathy"`
}

type DialogueExample struct {
	User      string `json:"user"`
	Character string `json:"character"`
}

type CreateSessionResponse struct {
	Id            string `json:"id"`
	CharacterName string `json:"characterName"`
	CreatedAt     string `json:"createdAt"`
}

type GetMessagesRequest struct {
	Id    string `path:"id"`
	Limit int    `form:"limit"`
}

type ChatMessage struct {
	Id          int64  `json:"id"`
	SessionId   string `json:"sessionId"`
	Sender      string `json:"sender"`
	MessageType string `json:"messageType"`
	Content     string `json:"content"`
	Emotion     string `json:"emotion,omitempty"`
	IsProactive bool   `json:"isProactive"`
	CreatedAt   string `json:"createdAt"`
}

type GetMessagesResponse struct {
	SessionId string        `json:"sessionId"`
	Messages  []ChatMessage `json:"messages"`
}

// Health

type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Connections int    `json:"connections"`
	Timestamp   string `json:"timestamp"`
}
