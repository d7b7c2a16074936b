package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile holds the user-facing copy of the widget.
type Profile struct {
	BotName            string   `yaml:"bot_name" json:"botName"`
	HomeTitle          string   `yaml:"home_title" json:"homeTitle"`
	HomeSubtitle       string   `yaml:"home_subtitle" json:"homeSubtitle"`
	WelcomeMessage     string   `yaml:"welcome_message" json:"welcomeMessage"`
	MessagePlaceholder string   `yaml:"message_placeholder" json:"messagePlaceholder"`
	TypingMessages     []string `yaml:"typing_messages" json:"typingMessages"`
	QuickQuestions     []string `yaml:"quick_questions" json:"quickQuestions"`
	PoweredByName      string   `yaml:"powered_by_name" json:"poweredByName"`
	PoweredByURL       string   `yaml:"powered_by_url" json:"poweredByUrl"`

	// Preview shown for sessions without a user message.
	NewSessionPreview string `yaml:"new_session_preview" json:"newSessionPreview"`
	// Transcript sent to support when the conversation is empty.
	EmptyTranscript string `yaml:"empty_transcript" json:"-"`

	Errors       ErrorCopy        `yaml:"errors" json:"-"`
	RelativeTime RelativeTimeCopy `yaml:"relative_time" json:"-"`
}

// ErrorCopy is the chat message shown for each transport failure kind.
type ErrorCopy struct {
	Timeout         string `yaml:"timeout"`
	Connection      string `yaml:"connection"`
	InvalidResponse string `yaml:"invalid_response"`
	HTTPStatus      string `yaml:"http_status"` // %d is replaced by the status code
	Generic         string `yaml:"generic"`
}

// RelativeTimeCopy holds the labels of the session history list.
type RelativeTimeCopy struct {
	JustNow    string `yaml:"just_now"`
	Minutes    string `yaml:"minutes"` // %d
	Hours      string `yaml:"hours"`   // %d
	Yesterday  string `yaml:"yesterday"`
	Days       string `yaml:"days"` // %d
	DateLayout string `yaml:"date_layout"`
}

// DefaultProfile returns the built-in copy.
func DefaultProfile() *Profile {
	return &Profile{
		BotName:            "AI Asistent",
		HomeTitle:          "Pozdravljeni 👋",
		HomeSubtitle:       "Kako vam lahko pomagamo?",
		WelcomeMessage:     "👋 Pozdravljeni! Kako vam lahko pomagam?",
		MessagePlaceholder: "Vnesite sporočilo...",
		TypingMessages: []string{
			"Preverjam podatke...",
			"Analiziram vprašanje...",
			"Iščem najboljši odgovor...",
			"Skoraj pripravljen...",
			"Še trenutek...",
		},
		QuickQuestions: []string{
			"Kako deluje vaša storitev?",
			"Koliko stane?",
		},
		PoweredByName:     "BotMotion",
		PoweredByURL:      "https://botmotion.ai",
		NewSessionPreview: "Nov pogovor",
		EmptyTranscript:   "[Ni zgodovine pogovora]",
		Errors: ErrorCopy{
			Timeout:         "Strežnik se ne odziva, poskusite ponovno",
			Connection:      "Povezava ni uspela, preverite internetno povezavo",
			InvalidResponse: "Neveljaven odgovor strežnika",
			HTTPStatus:      "Strežnik je vrnil napako (%d)",
			Generic:         "Oprostite, prišlo je do napake. Poskusite znova.",
		},
		RelativeTime: RelativeTimeCopy{
			JustNow:    "sedaj",
			Minutes:    "pred %d min",
			Hours:      "pred %d h",
			Yesterday:  "včeraj",
			Days:       "pred %d dni",
			DateLayout: "2. Jan",
		},
	}
}

// LoadProfile reads a YAML profile over the defaults. Keys missing from the
// file keep their default value. An empty path returns the defaults.
func LoadProfile(path string) (*Profile, error) {
	profile := DefaultProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if len(profile.TypingMessages) == 0 {
		profile.TypingMessages = DefaultProfile().TypingMessages
	}
	return profile, nil
}
