package ai

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// emotion keywords, scored by occurrence and keyword length
var emotionKeywords = map[string][]string{
	"happy":     {"happy", "glad", "joy", "cheerful", "delighted", "pleased", "wonderful", "great", "smile", "laugh", "haha", "😊", "😄", "🤗"},
	"sad":       {"sad", "unhappy", "depressed", "down", "disappointed", "heartbroken", "lonely", "miss", "cry", "tears", "😢", "😭", "💔"},
	"excited":   {"excited", "thrilled", "pumped", "ecstatic", "energized", "can't wait", "amazing", "awesome", "🎉", "🔥", "💪"},
	"calm":      {"calm", "peaceful", "quiet", "serene", "relaxed", "settled", "steady", "at ease", "😌", "🧘"},
	"angry":     {"angry", "mad", "furious", "annoyed", "irritated", "outraged", "hate", "fed up", "😠", "😡", "🤬"},
	"surprised": {"surprised", "shocked", "unexpected", "unbelievable", "no way", "wow", "whoa", "oh my", "😲", "😮", "🤯"},
	"confused":  {"confused", "puzzled", "unclear", "don't understand", "what do you mean", "lost", "?", "😕", "🤔"},
	"thinking":  {"thinking", "wonder", "consider", "ponder", "reflect", "remember", "recall", "hmm", "🤔", "💭"},
	"love":      {"love", "adore", "fond", "care about", "sweet", "dear", "cherish", "💖", "💕", "😍", "🥰"},
	"fear":      {"afraid", "scared", "worried", "nervous", "anxious", "uneasy", "panic", "terrified", "😨", "😰", "😱"},
}

var sentimentKeywords = struct {
	positive []string
	negative []string
}{
	positive: []string{"good", "nice", "excellent", "perfect", "success", "win", "beautiful", "warm", "hope", "bright"},
	negative: []string{"bad", "worse", "awful", "fail", "pain", "hard", "problem", "wrong", "dark", "hopeless", "danger", "trouble"},
}

// EmotionSentiment holds polarity (-1..1) and subjectivity (0..1)
type EmotionSentiment struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

// EmotionAnalysis is the result of analyzing a piece of text
type EmotionAnalysis struct {
	PrimaryEmotion string             `json:"primary_emotion"`
	Confidence     float64            `json:"confidence"`
	Emotions       map[string]float64 `json:"emotions"`
	Sentiment      EmotionSentiment   `json:"sentiment"`
	ModelUsed      string             `json:"model_used"`
	ProcessingMS   int64              `json:"processing_time"`
}

// AnalyzeEmotion runs the rule-based emotion scorer over the text. It never
// fails; text with no emotional signal comes back neutral.
func AnalyzeEmotion(text string) *EmotionAnalysis {
	start := time.Now()

	clean := cleanText(text)
	scores := emotionScores(clean)
	primary := primaryEmotion(scores)
	confidence := emotionConfidence(scores, primary)
	sentiment := analyzeSentiment(clean)

	return &EmotionAnalysis{
		PrimaryEmotion: primary,
		Confidence:     confidence,
		Emotions:       scores,
		Sentiment:      sentiment,
		ModelUsed:      "rule-based-emotion-analyzer",
		ProcessingMS:   time.Since(start).Milliseconds(),
	}
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func cleanText(text string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(strings.ToLower(text)), " ")
}

func emotionScores(text string) map[string]float64 {
	scores := make(map[string]float64)
	textLen := len([]rune(text))
	if textLen == 0 {
		return map[string]float64{"neutral": 1.0}
	}

	norm := math.Sqrt(float64(textLen)/10 + 1)
	for emotion, keywords := range emotionKeywords {
		var score float64
		for _, kw := range keywords {
			if n := strings.Count(text, kw); n > 0 {
				// weight by keyword length and occurrence count
				score += float64(n) * (float64(len([]rune(kw)))/10 + 0.1)
			}
		}
		scores[emotion] = math.Min(1.0, score/norm)
	}

	var total float64
	for _, s := range scores {
		total += s
	}
	if total < 0.1 {
		scores["neutral"] = 0.8
	}

	return normalizeScores(scores)
}

func normalizeScores(scores map[string]float64) map[string]float64 {
	var total float64
	for _, s := range scores {
		total += s
	}
	if total == 0 {
		return scores
	}
	normalized := make(map[string]float64, len(scores))
	for emotion, s := range scores {
		normalized[emotion] = math.Round(s/total*1000) / 1000
	}
	return normalized
}

func primaryEmotion(scores map[string]float64) string {
	maxEmotion := "neutral"
	var maxScore float64
	for emotion, s := range scores {
		if s > maxScore {
			maxScore = s
			maxEmotion = emotion
		}
	}
	return maxEmotion
}

func emotionConfidence(scores map[string]float64, primary string) float64 {
	primaryScore := scores[primary]
	var maxOther float64
	for emotion, s := range scores {
		if emotion != primary && s > maxOther {
			maxOther = s
		}
	}
	// confidence grows with the lead over the runner-up
	c := primaryScore + (primaryScore-maxOther)*0.5
	return math.Min(1.0, math.Max(0.1, c))
}

func analyzeSentiment(text string) EmotionSentiment {
	var positive, negative, subjective int

	for _, kw := range sentimentKeywords.positive {
		positive += strings.Count(text, kw)
	}
	for _, kw := range sentimentKeywords.negative {
		negative += strings.Count(text, kw)
	}
	for _, keywords := range emotionKeywords {
		for _, kw := range keywords {
			subjective += strings.Count(text, kw)
		}
	}

	var polarity float64
	if total := positive + negative; total > 0 {
		polarity = float64(positive-negative) / float64(total)
	}

	words := len(strings.Fields(text))
	var subjectivity float64
	if words > 0 {
		subjectivity = math.Min(1.0, float64(subjective)/float64(words))
	}

	return EmotionSentiment{
		Polarity:     math.Round(polarity*1000) / 1000,
		Subjectivity: math.Round(subjectivity*1000) / 1000,
	}
}
