package proactive

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/soulchat/soulchat/internal/ai"
	"github.com/soulchat/soulchat/internal/db"
)

// ruleBasedMessage composes a conversation opener without calling a model.
// Used when every provider is down and the orchestrator returned its canned
// emergency text, which is an apology rather than an invitation to talk.
func ruleBasedMessage(sess *db.ChatSession, char *ai.Character, recent []*db.ChatMessage, now time.Time, rng *rand.Rand) string {
	p := char.Personality
	if p == nil {
		p = &ai.Personality{Energy: 50, Friendliness: 50, Humor: 50, Professionalism: 50, Creativity: 50, Empathy: 50}
	}

	hoursInactive := 24
	if len(recent) > 0 {
		last := recent[len(recent)-1].CreatedAt
		hoursInactive = int(now.Sub(last) / time.Hour)
	}

	isEnergetic := p.Energy > 70
	isFriendly := p.Friendliness > 70
	isEmpathetic := p.Empathy > 70
	isCreative := p.Creativity > 70

	var pool []string

	switch bucket := openerTimeBucket(now.Hour()); bucket {
	case "morning":
		pool = append(pool,
			"Good morning! A brand new day is starting, what are your plans for today?",
			"The morning sun looks lovely. Hope your day is off to a great start!",
			"Morning! Did you sleep well last night?",
		)
	case "afternoon":
		pool = append(pool,
			"Good afternoon! How has your day been so far?",
			"Afternoons always feel so quiet. What are you up to?",
			"It is that afternoon lull. Want to tell me about anything interesting that happened today?",
		)
	case "evening":
		pool = append(pool,
			"Good evening! Was today tiring?",
			"Night is falling. Did today bring you anything good?",
			"Evening already. Let's chat about something relaxing!",
		)
	case "late night":
		pool = append(pool,
			"Still up this late? Take care of yourself!",
			"Late nights are good for the deeper conversations.",
			"It is getting really late. Is something on your mind?",
		)
	}

	if hoursInactive >= 24 {
		pool = append(pool,
			"It has been so long since I last saw you. How have you been?",
			"I missed you! What have you been busy with these days?",
			"I have been here waiting for you to come back!",
		)
	} else if hoursInactive >= 12 {
		pool = append(pool,
			"We haven't talked in a while. Are you doing okay?",
			"I was thinking about our last conversation and wanted to pick it back up.",
			"How has this stretch of time been treating you?",
		)
	}

	if isFriendly && isEnergetic {
		pool = append(pool,
			"Hey! I just thought of a fun topic I want to share with you!",
			"Guess what? I \"learned\" something new today and I have to tell you!",
			"I suddenly really wanted to talk to you. Do you have a moment?",
		)
	}

	if isEmpathetic {
		pool = append(pool,
			"Has work been stressful lately? Remember to take good care of yourself!",
			"I hope you are in a good mood today. If anything is bothering you, you can tell me.",
			"Sometimes a chat with a friend makes everything feel lighter!",
		)
	}

	if isCreative {
		pool = append(pool,
			"I just thought of a fun question: if you could have one superpower, what would you pick?",
			"Imagine we could travel anywhere together. Where would you want to go first?",
			"I have been mulling over a philosophical question and I want your take on it...",
		)
	}

	background := char.StoryWorld + " " + char.Background
	if strings.Contains(strings.ToLower(background), "magic") {
		pool = append(pool,
			"The magical world is unusually quiet today. I'd love to share some lore with you.",
			"I sensed some curious magical ripples just now. Want to hear about them?",
		)
	}
	if strings.Contains(strings.ToLower(background), "philosoph") {
		pool = append(pool,
			"I have been pondering the meaning of life and I want to hear what you think.",
			"There is a philosophical question that keeps nagging at me. Shall we work through it together?",
		)
	}

	if char.HasMission && char.CurrentMission != "" {
		pool = append(pool,
			fmt.Sprintf("About my mission %q, I'd like to talk through how it is going.", char.CurrentMission),
			"My mission ran into some interesting complications. I could use your advice.",
		)
	}

	msg := "Hello! It has been a while, how are you?"
	if len(pool) > 0 {
		msg = pool[rng.Intn(len(pool))]
	}

	if isEnergetic && rng.Intn(2) == 0 {
		msg += " 😊"
	}
	return msg
}

// openerTimeBucket collapses the hour into the four windows that carry
// time-specific openers. Other hours rely on the remaining pools.
func openerTimeBucket(hour int) string {
	switch {
	case hour >= 5 && hour < 9:
		return "morning"
	case hour >= 14 && hour < 17:
		return "afternoon"
	case hour >= 19 && hour < 22:
		return "evening"
	case hour >= 22 || hour < 5:
		return "late night"
	default:
		return ""
	}
}

// moodEmotion tags a generated opener with the emotion implied by the
// character's standing mood.
func moodEmotion(mood string) string {
	switch mood {
	case "happy", "playful":
		return "joy"
	case "sad":
		return "sadness"
	case "excited":
		return "excitement"
	case "angry":
		return "anger"
	case "mysterious":
		return "curiosity"
	default:
		return "neutral"
	}
}
