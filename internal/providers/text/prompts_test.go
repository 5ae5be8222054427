package text

import (
	"context"
	"strings"
	"testing"

	"repurposer/internal/domain"
)

func TestSystemPromptPerPlatform(t *testing.T) {
	cases := []struct {
		ct   domain.ContentType
		want string
	}{
		{domain.ContentTypeTwitter, "Twitter threads"},
		{domain.ContentTypeInstagram, "Instagram captions"},
		{domain.ContentTypeLinkedIn, "LinkedIn posts"},
		{domain.ContentTypeFacebook, "Facebook posts"},
		{domain.ContentTypeThumbnail, "AI image generation"},
		{domain.ContentTypeTwitterImage, "AI image generation"},
	}
	for _, tc := range cases {
		got := SystemPrompt(Request{ContentType: tc.ct})
		if !strings.Contains(got, tc.want) {
			t.Errorf("SystemPrompt(%s) missing %q", tc.ct, tc.want)
		}
	}
}

func TestUserPromptIncludesSourceAndOptions(t *testing.T) {
	prompt := UserPrompt(Request{
		Title:       "Shipping Fast",
		Content:     "We ship every day.",
		ContentType: domain.ContentTypeFacebook,
		Options: domain.GenerationOptions{
			Tone:     "playful",
			Hashtags: []string{"shipit", "devlife"},
		},
	})

	for _, want := range []string{"Shipping Fast", "We ship every day.", "playful tone", "shipit, devlife"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("UserPrompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestUserPromptImageTargetsPlatform(t *testing.T) {
	prompt := UserPrompt(Request{
		Title:       "Shipping Fast",
		Content:     "We ship every day.",
		ContentType: domain.ContentTypeInstagramImage,
		Options:     domain.GenerationOptions{VisualStyle: "watercolor"},
	})

	if !strings.Contains(prompt, "instagram") {
		t.Errorf("image prompt does not target the platform:\n%s", prompt)
	}
	if !strings.Contains(prompt, "watercolor style") {
		t.Errorf("image prompt missing visual style:\n%s", prompt)
	}

	thumb := UserPrompt(Request{ContentType: domain.ContentTypeThumbnail})
	if !strings.Contains(thumb, "thumbnail image") {
		t.Errorf("thumbnail prompt missing thumbnail wording:\n%s", thumb)
	}
}

func TestUserPromptTruncatesDeterministically(t *testing.T) {
	long := strings.Repeat("a", maxSourceRunes+500)
	req := Request{Title: "t", Content: long, ContentType: domain.ContentTypeTwitter}

	first := UserPrompt(req)
	second := UserPrompt(req)
	if first != second {
		t.Fatal("truncated prompt is not deterministic")
	}
	if strings.Contains(first, strings.Repeat("a", maxSourceRunes+1)) {
		t.Fatal("source text was not truncated")
	}
}

func TestStaticGeneratorDeterministic(t *testing.T) {
	gen := NewStaticGenerator()
	req := Request{
		Title:       "a quiet launch",
		Content:     "Details inside.",
		ContentType: domain.ContentTypeTwitter,
		Options:     domain.GenerationOptions{Hashtags: []string{"launch"}},
	}

	first, err := gen.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	second, _ := gen.Generate(context.Background(), req)
	if first != second {
		t.Fatal("static output is not deterministic")
	}
	if !strings.HasPrefix(first, "1/ ") {
		t.Errorf("twitter output is not a numbered thread: %q", first)
	}
	if !strings.Contains(first, "#launch") {
		t.Errorf("output missing hashtag: %q", first)
	}
}
