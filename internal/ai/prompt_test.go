package ai

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestBuildSystemPromptSections(t *testing.T) {
	c := &Character{
		Name:        "Lyra",
		Description: "A wandering bard who collects stories.",
		CurrentMood: "happy",
		StoryWorld:  "The Shattered Isles",
		Background:  "Raised by sailors on the northern coast.",
		HasMission:  true, CurrentMission: "Find the lost song of the tide",
		Personality: &Personality{
			Energy: 85, Friendliness: 80, Humor: 20,
			Professionalism: 50, Creativity: 90, Empathy: 50,
		},
		Examples: []DialogueExample{
			{Input: "hello", Output: "Well met!"},
		},
	}

	prompt := BuildSystemPrompt(c, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	for _, want := range []string{
		"You are Lyra",
		"cheerful and in good spirits",
		"lively and enthusiastic",  // energy > 70
		"serious and earnest",      // humor < 30
		"imaginative and inventive", // creativity > 70
		"The Shattered Isles",
		"Raised by sailors",
		"Find the lost song of the tide",
		"Well met!",
		"Guidelines:",
		"first person",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}

	// Midline traits must not appear
	if strings.Contains(prompt, "precise and professional") {
		t.Error("midline professionalism should not produce a trait phrase")
	}
}

func TestBuildSystemPromptPreset(t *testing.T) {
	c := &Character{Name: "Vex", Description: "A shadow.", PersonalityPreset: "mysterious"}
	prompt := BuildSystemPrompt(c, time.Now())
	if !strings.Contains(prompt, "enigmatic") {
		t.Errorf("expected mysterious preset text, got:\n%s", prompt)
	}
}

func TestBuildSystemPromptExamplesCapped(t *testing.T) {
	c := &Character{Name: "Vex", Description: "A shadow."}
	for i := 0; i < 5; i++ {
		c.Examples = append(c.Examples, DialogueExample{
			Input:  fmt.Sprintf("in-%d", i),
			Output: fmt.Sprintf("out-%d", i),
		})
	}
	prompt := BuildSystemPrompt(c, time.Now())
	if !strings.Contains(prompt, "out-2") {
		t.Error("expected third example present")
	}
	if strings.Contains(prompt, "out-3") {
		t.Error("expected examples capped at three")
	}
}

func TestBuildSystemPromptTimeContext(t *testing.T) {
	real := &Character{Name: "A", Description: "d", UseRealTime: true}
	prompt := BuildSystemPrompt(real, time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC))
	if !strings.Contains(prompt, "Current time:") || !strings.Contains(prompt, "sun is setting") {
		t.Errorf("expected evening real-time context, got:\n%s", prompt)
	}

	fixed := &Character{Name: "A", Description: "d", TimeSetting: "night"}
	prompt = BuildSystemPrompt(fixed, time.Now())
	if !strings.Contains(prompt, "Time setting:") || !strings.Contains(prompt, "moonlight") {
		t.Errorf("expected fixed night setting, got:\n%s", prompt)
	}
}

func TestBuildMessagesCapsHistory(t *testing.T) {
	var history []Turn
	for i := 0; i < 30; i++ {
		sender := "user"
		if i%2 == 1 {
			sender = "ai"
		}
		history = append(history, Turn{Sender: sender, Content: fmt.Sprintf("msg-%d", i)})
	}

	messages := BuildMessages(history, "latest")

	if len(messages) != maxHistoryMessages+1 {
		t.Fatalf("len = %d, want %d", len(messages), maxHistoryMessages+1)
	}
	// Oldest surviving turn is msg-10
	if messages[0].Content != "msg-10" {
		t.Errorf("first message = %q, want msg-10", messages[0].Content)
	}
	last := messages[len(messages)-1]
	if last.Role != RoleUser || last.Content != "latest" {
		t.Errorf("last message = %+v", last)
	}
}

func TestBuildMessagesRoleMapping(t *testing.T) {
	messages := BuildMessages([]Turn{
		{Sender: "user", Content: "hi"},
		{Sender: "ai", Content: "hello"},
	}, "again")

	if messages[0].Role != RoleUser {
		t.Errorf("user turn role = %q", messages[0].Role)
	}
	if messages[1].Role != RoleAssistant {
		t.Errorf("ai turn role = %q", messages[1].Role)
	}
}

func TestBuildProactivePrompt(t *testing.T) {
	c := testCharacter()
	c.StoryWorld = "The Shattered Isles"

	prompt := BuildProactivePrompt(c, []Turn{
		{Sender: "user", Content: "good night"},
	}, time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC))

	for _, want := range []string{
		"You are Lyra",
		"late night",
		"The Shattered Isles",
		"user: good night",
		"energy: 80/100",
		"one or two sentences",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("proactive prompt missing %q", want)
		}
	}
}

func TestBuildProactivePromptNoHistory(t *testing.T) {
	prompt := BuildProactivePrompt(testCharacter(), nil, time.Now())
	if !strings.Contains(prompt, "(no conversation yet)") {
		t.Error("expected placeholder for empty history")
	}
}
