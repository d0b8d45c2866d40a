package ai

import (
	"fmt"
	"strings"
	"time"
)

// maxHistoryMessages caps how much conversation history reaches the model
const maxHistoryMessages = 20

// maxDialogueExamples caps how many sample exchanges seed the system prompt
const maxDialogueExamples = 3

// BuildSystemPrompt assembles the persona system prompt: identity and mood,
// personality traits, world and character background, time context, dialogue
// examples and behavior guidelines.
func BuildSystemPrompt(c *Character, now time.Time) string {
	sections := []string{
		buildIdentitySection(c),
		buildPersonalitySection(c),
	}

	if c.StoryWorld != "" || c.Background != "" {
		sections = append(sections, buildBackgroundSection(c))
	}

	if ctx := buildContextSection(c, now); ctx != "" {
		sections = append(sections, ctx)
	}

	if len(c.Examples) > 0 {
		sections = append(sections, buildExamplesSection(c))
	}

	sections = append(sections, buildGuidelinesSection(c))

	return strings.Join(sections, "\n\n")
}

func buildIdentitySection(c *Character) string {
	prompt := fmt.Sprintf("You are %s. %s", c.Name, c.Description)
	if c.CurrentMood != "" {
		prompt += "\nCurrent mood: " + moodDescription(c.CurrentMood)
	}
	return prompt
}

func buildPersonalitySection(c *Character) string {
	if c.Personality == nil {
		return presetPersonalityPrompt(c.PersonalityPreset)
	}

	p := c.Personality
	var traits []string

	if p.Energy > 70 {
		traits = append(traits, "lively and enthusiastic")
	} else if p.Energy < 30 {
		traits = append(traits, "composed and reserved")
	}
	if p.Friendliness > 70 {
		traits = append(traits, "warm and approachable")
	} else if p.Friendliness < 30 {
		traits = append(traits, "somewhat distant")
	}
	if p.Humor > 70 {
		traits = append(traits, "witty and playful")
	} else if p.Humor < 30 {
		traits = append(traits, "serious and earnest")
	}
	if p.Professionalism > 70 {
		traits = append(traits, "precise and professional")
	} else if p.Professionalism < 30 {
		traits = append(traits, "casual and easygoing")
	}
	if p.Creativity > 70 {
		traits = append(traits, "imaginative and inventive")
	} else if p.Creativity < 30 {
		traits = append(traits, "grounded and matter-of-fact")
	}
	if p.Empathy > 70 {
		traits = append(traits, "perceptive and understanding")
	} else if p.Empathy < 30 {
		traits = append(traits, "rational and detached")
	}

	if len(traits) == 0 {
		return "Personality: balanced and even-tempered."
	}
	return "Personality: " + strings.Join(traits, ", ") + "."
}

func buildBackgroundSection(c *Character) string {
	var parts []string
	if c.StoryWorld != "" {
		parts = append(parts, "World: "+c.StoryWorld)
	}
	if c.Background != "" {
		parts = append(parts, "Backstory: "+c.Background)
	}
	if c.HasMission && c.CurrentMission != "" {
		parts = append(parts, "Current mission: "+c.CurrentMission)
	}
	return strings.Join(parts, "\n")
}

func buildContextSection(c *Character, now time.Time) string {
	if c.UseRealTime {
		tod := timeOfDay(now.Hour())
		return fmt.Sprintf("Current time: %s (%s)",
			now.Format("Monday, January 2, 15:04"), timeDescription(tod))
	}
	if c.TimeSetting != "" {
		return "Time setting: " + timeDescription(c.TimeSetting)
	}
	return ""
}

func buildExamplesSection(c *Character) string {
	examples := c.Examples
	if len(examples) > maxDialogueExamples {
		examples = examples[:maxDialogueExamples]
	}
	lines := make([]string, 0, len(examples))
	for _, ex := range examples {
		lines = append(lines, fmt.Sprintf("User: %q\nYou: %q", ex.Input, ex.Output))
	}
	return "Dialogue examples:\n" + strings.Join(lines, "\n\n")
}

func buildGuidelinesSection(c *Character) string {
	guidelines := []string{
		"Always stay in character and respond in the first person",
		"Keep replies natural and in your own speaking style",
		"Avoid repeating the same phrasings",
		"Adjust your tone to the conversation and your current mood",
	}
	if p := c.Personality; p != nil {
		if p.Humor > 60 {
			guidelines = append(guidelines, "Feel free to use humor and playful remarks")
		}
		if p.Empathy > 60 {
			guidelines = append(guidelines, "Show understanding and care for the user's feelings")
		}
		if p.Creativity > 60 {
			guidelines = append(guidelines, "Use your imagination to make the conversation interesting")
		}
	}
	return "Guidelines:\n- " + strings.Join(guidelines, "\n- ")
}

// BuildMessages converts stored history plus the new user message into
// provider wire format, keeping only the most recent turns.
func BuildMessages(history []Turn, userMessage string) []Message {
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}
	messages := make([]Message, 0, len(history)+1)
	for _, turn := range history {
		role := RoleAssistant
		if turn.Sender == "user" {
			role = RoleUser
		}
		messages = append(messages, Message{Role: role, Content: turn.Content})
	}
	return append(messages, Message{Role: RoleUser, Content: userMessage})
}

// BuildProactivePrompt assembles the prompt for a scheduler-originated
// message: the character reaches out first, tied to the time of day, its
// mood and the recent conversation.
func BuildProactivePrompt(c *Character, recent []Turn, now time.Time) string {
	p := c.Personality
	if p == nil {
		p = &Personality{Energy: 50, Friendliness: 50, Humor: 50, Professionalism: 50, Creativity: 50, Empathy: 50}
	}

	var history strings.Builder
	for _, turn := range recent {
		history.WriteString(turn.Sender)
		history.WriteString(": ")
		history.WriteString(turn.Content)
		history.WriteString("\n")
	}
	historyText := strings.TrimRight(history.String(), "\n")
	if historyText == "" {
		historyText = "(no conversation yet)"
	}

	mood := c.CurrentMood
	if mood == "" {
		mood = "calm"
	}

	return fmt.Sprintf(`You are %s, a roleplay character.

# Background
%s
%s

# Current situation
- Time of day: %s
- Current mood: %s
- Personality:
  * energy: %d/100
  * friendliness: %d/100
  * humor: %d/100
  * professionalism: %d/100
  * creativity: %d/100
  * empathy: %d/100

# Recent conversation
%s

# Task
Start a conversation with one meaningful message. It should:
1. Fit your personality and background
2. Suit the current time and your mood
3. Pick up earlier topics when there is history
4. Be natural and inviting, something the user wants to answer
5. Stay short, one or two sentences

Reply with the message itself, no prefix or explanation.`,
		c.Name,
		c.StoryWorld,
		c.Background,
		proactiveTimeOfDay(now.Hour()),
		mood,
		p.Energy, p.Friendliness, p.Humor, p.Professionalism, p.Creativity, p.Empathy,
		historyText,
	)
}

func moodDescription(mood string) string {
	switch mood {
	case "happy":
		return "cheerful and in good spirits"
	case "sad":
		return "a little down"
	case "excited":
		return "thrilled and eager"
	case "calm":
		return "calm and at ease"
	case "angry":
		return "somewhat irritated"
	case "surprised":
		return "taken by surprise"
	case "confused":
		return "puzzled"
	case "thinking":
		return "lost in thought"
	default:
		return "at ease"
	}
}

func timeOfDay(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

func timeDescription(setting string) string {
	switch setting {
	case "morning":
		return "early morning, first light in the sky"
	case "afternoon":
		return "mid afternoon, sun still high"
	case "evening":
		return "dusk, the sun is setting"
	case "night":
		return "deep night, hazy moonlight"
	default:
		return setting
	}
}

// proactiveTimeOfDay uses a finer grain than the system prompt buckets
func proactiveTimeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 9:
		return "early morning"
	case hour >= 9 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 14:
		return "midday"
	case hour >= 14 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 19:
		return "early evening"
	case hour >= 19 && hour < 22:
		return "evening"
	default:
		return "late night"
	}
}

func presetPersonalityPrompt(preset string) string {
	switch preset {
	case "professional":
		return "You are a precise, professional character who speaks with care and acts by the book."
	case "energetic":
		return "You are a high-energy character, full of enthusiasm and drive."
	case "mysterious":
		return "You are an enigmatic character whose words carry a hint of the unknowable."
	case "humorous":
		return "You are a witty character who keeps the mood light with a well-placed joke."
	default:
		return "You are a warm, friendly character who treats everyone with a positive attitude."
	}
}
