package text

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"repurposer/internal/domain"
)

const staticProviderName = "static"

// StaticGenerator produces deterministic placeholder content without network
// access. It is intended for offline development and must be explicitly
// configured into a chain; it is never appended implicitly.
type StaticGenerator struct{}

func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{}
}

func (s *StaticGenerator) Name() string { return staticProviderName }

func (s *StaticGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled Post"
	}
	title = cases.Title(language.Und).String(title)

	if req.ContentType.IsImage() {
		return fmt.Sprintf("A clean, modern illustration representing %q, flat design, soft lighting, no text", title), nil
	}

	sb := &strings.Builder{}
	switch req.ContentType {
	case domain.ContentTypeTwitter:
		fmt.Fprintf(sb, "1/ %s\n\n2/ %s\n\n3/ Read the full post for more.", title, summaryLine(req.Content))
	default:
		fmt.Fprintf(sb, "%s\n\n%s", title, summaryLine(req.Content))
	}
	if len(req.Options.Hashtags) > 0 {
		sb.WriteString("\n\n")
		for i, tag := range req.Options.Hashtags {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString("#" + strings.TrimPrefix(tag, "#"))
		}
	}
	return sb.String(), nil
}

func summaryLine(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return "New post on the blog."
	}
	runes := []rune(content)
	if len(runes) > 200 {
		return string(runes[:200]) + "..."
	}
	return content
}

var _ Generator = (*StaticGenerator)(nil)
