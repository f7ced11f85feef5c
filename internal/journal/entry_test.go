package journal

import (
	"errors"
	"strings"
	"testing"
)

func TestInputNormalize_Defaults(t *testing.T) {
	out, err := Input{Content: "  오늘은 맑음  "}.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if out.Content != "오늘은 맑음" {
		t.Fatalf("expected trimmed content, got %q", out.Content)
	}
	if out.Emotion != DefaultEmotion || out.Weather != DefaultWeather || out.Mood != DefaultMood {
		t.Fatalf("unexpected defaults: %+v", out)
	}
	if out.IsPrivate == nil || !*out.IsPrivate {
		t.Fatalf("expected private by default")
	}
}

func TestInputNormalize_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want error
	}{
		{name: "blank", in: Input{Content: "   "}, want: ErrContentRequired},
		{name: "too long", in: Input{Content: strings.Repeat("가", MaxContentLength+1)}, want: ErrContentTooLong},
		{name: "unknown emotion", in: Input{Content: "x", Emotion: "🙃"}, want: ErrInvalidEmotion},
		{name: "mood high", in: Input{Content: "x", Mood: 11}, want: ErrInvalidMood},
		{name: "mood negative", in: Input{Content: "x", Mood: -1}, want: ErrInvalidMood},
	}
	for _, tc := range tests {
		_, err := tc.in.Normalize()
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !IsValidationError(err) {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}

	if _, err := (Input{Content: strings.Repeat("가", MaxContentLength)}).Normalize(); err != nil {
		t.Fatalf("expected %d runes to be accepted, got %v", MaxContentLength, err)
	}
}
