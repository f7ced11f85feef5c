package journal

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Entry limits and defaults.
const (
	MaxContentLength = 200
	DefaultEmotion   = "😊"
	DefaultWeather   = "🌞"
	DefaultMood      = 5
	MinMood          = 1
	MaxMood          = 10
)

// Emotions is the fixed set of emotion tags.
var Emotions = []string{"😊", "😠", "😢", "😴", "😮", "🤔", "😍", "😎", "😅"}

var (
	ErrContentRequired = errors.New("Content is required")
	ErrContentTooLong  = errors.New("Content too long")
	ErrInvalidEmotion  = errors.New("Unknown emotion")
	ErrInvalidMood     = errors.New("Mood must be between 1 and 10")
)

// IsEmotion reports whether tag is one of Emotions.
func IsEmotion(tag string) bool {
	for _, e := range Emotions {
		if e == tag {
			return true
		}
	}
	return false
}

// Input is the client-supplied content of a diary entry. Zero values take defaults.
type Input struct {
	Content   string `json:"content"`
	Emotion   string `json:"emotion"`
	Weather   string `json:"weather"`
	Mood      int    `json:"mood"`
	IsPrivate *bool  `json:"isPrivate"`
}

// Normalize trims content, fills defaults and validates the entry.
func (in Input) Normalize() (Input, error) {
	out := in
	out.Content = strings.TrimSpace(in.Content)
	if out.Content == "" {
		return Input{}, ErrContentRequired
	}
	if utf8.RuneCountInString(out.Content) > MaxContentLength {
		return Input{}, ErrContentTooLong
	}

	out.Emotion = strings.TrimSpace(in.Emotion)
	if out.Emotion == "" {
		out.Emotion = DefaultEmotion
	}
	if !IsEmotion(out.Emotion) {
		return Input{}, ErrInvalidEmotion
	}

	out.Weather = strings.TrimSpace(in.Weather)
	if out.Weather == "" {
		out.Weather = DefaultWeather
	}

	if out.Mood == 0 {
		out.Mood = DefaultMood
	}
	if out.Mood < MinMood || out.Mood > MaxMood {
		return Input{}, ErrInvalidMood
	}

	if out.IsPrivate == nil {
		private := true
		out.IsPrivate = &private
	}
	return out, nil
}

// IsValidationError reports whether err was produced by Normalize.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrContentRequired) ||
		errors.Is(err, ErrContentTooLong) ||
		errors.Is(err, ErrInvalidEmotion) ||
		errors.Is(err, ErrInvalidMood)
}
