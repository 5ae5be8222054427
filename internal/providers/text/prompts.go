package text

import (
	"fmt"
	"strings"

	"repurposer/internal/domain"
)

// maxSourceRunes bounds the source text embedded into a prompt. Truncation is
// deterministic: same input, same cut.
const maxSourceRunes = 12000

const (
	twitterSystemPrompt = "You are an expert at repurposing blog content into engaging Twitter threads. " +
		"Create a thread that captures the key points of the blog while maintaining the original voice and style. " +
		"Format the thread with each tweet numbered and separated by a line break. " +
		"Keep each tweet under 280 characters. Include relevant hashtags at the end of the thread."

	instagramSystemPrompt = "You are an expert at repurposing blog content into engaging Instagram captions. " +
		"Create a caption that captures the essence of the blog while being visually appealing and engaging. " +
		"Include line breaks for readability and relevant hashtags at the end. " +
		"The caption should be between 150-300 words."

	linkedinSystemPrompt = "You are an expert at repurposing blog content into professional LinkedIn posts. " +
		"Create a post that presents the key insights from the blog in a professional, thoughtful manner. " +
		"Format the post with clear paragraphs, bullet points where appropriate, and a call to action. " +
		"The post should be between 200-500 words."

	facebookSystemPrompt = "You are an expert at repurposing blog content into engaging Facebook posts. " +
		"Create a post that captures the key points of the blog while encouraging engagement. " +
		"Format the post with clear paragraphs and include a question or call to action to encourage comments. " +
		"The post should be between 150-400 words."

	imagePromptSystem = "You are an expert at creating prompts for AI image generation. " +
		"Create a detailed, vivid prompt that will result in a high-quality, engaging image. " +
		"The prompt should be descriptive and specific, focusing on the main theme of the content. " +
		"Do not include any text in the image prompt."
)

// SystemPrompt returns the instruction block for a request.
func SystemPrompt(req Request) string {
	if req.ContentType.IsImage() {
		return imagePromptSystem
	}
	switch req.ContentType {
	case domain.ContentTypeTwitter:
		return twitterSystemPrompt
	case domain.ContentTypeInstagram:
		return instagramSystemPrompt
	case domain.ContentTypeLinkedIn:
		return linkedinSystemPrompt
	case domain.ContentTypeFacebook:
		return facebookSystemPrompt
	}
	return linkedinSystemPrompt
}

// UserPrompt renders the per-platform user message, folding in the advisory
// generation options.
func UserPrompt(req Request) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Blog Title: %s\n\nBlog Content:\n%s\n\n", req.Title, truncateSource(req.Content))

	if req.ContentType.IsImage() {
		buildImageUserPrompt(sb, req)
	} else {
		buildTextUserPrompt(sb, req)
	}
	return sb.String()
}

func buildTextUserPrompt(sb *strings.Builder, req Request) {
	switch req.ContentType {
	case domain.ContentTypeTwitter:
		sb.WriteString("Please convert this blog post into an engaging Twitter thread that captures the key points " +
			"while maintaining the original voice and style. Format as a numbered thread with each tweet under 280 characters.")
	case domain.ContentTypeInstagram:
		sb.WriteString("Please convert this blog post into an engaging Instagram caption that captures the essence " +
			"of the content. Include line breaks for readability and relevant hashtags at the end.")
	case domain.ContentTypeLinkedIn:
		sb.WriteString("Please convert this blog post into a professional LinkedIn post that presents the key insights " +
			"in a thoughtful manner. Format with clear paragraphs, bullet points where appropriate, and include a call to action.")
	case domain.ContentTypeFacebook:
		sb.WriteString("Please convert this blog post into an engaging Facebook post that captures the key points " +
			"while encouraging engagement. Include a question or call to action to encourage comments.")
	default:
		fmt.Fprintf(sb, "Please repurpose this blog post for the %s platform.", req.ContentType)
	}

	if tone := strings.TrimSpace(req.Options.Tone); tone != "" {
		fmt.Fprintf(sb, "\n\nUse a %s tone.", tone)
	}
	if len(req.Options.Hashtags) > 0 {
		fmt.Fprintf(sb, "\n\nInclude these hashtags: %s", strings.Join(req.Options.Hashtags, ", "))
	}
}

func buildImageUserPrompt(sb *strings.Builder, req Request) {
	if platform := req.ContentType.Platform(); platform != "" {
		fmt.Fprintf(sb, "Please create a detailed, vivid prompt for generating an image for a %s post about this content. "+
			"The image should be optimized for the %s platform's audience and format.", platform, platform)
	} else {
		sb.WriteString("Please create a detailed, vivid prompt for generating a thumbnail image for this blog post. " +
			"The prompt should focus on the main theme of the post.")
	}

	if style := strings.TrimSpace(req.Options.VisualStyle); style != "" {
		fmt.Fprintf(sb, "\n\nThe image should be in a %s style.", style)
	}
	if tone := strings.TrimSpace(req.Options.Tone); tone != "" {
		fmt.Fprintf(sb, "\n\nThe image should match a %s tone.", tone)
	}
	if len(req.Options.Hashtags) > 0 {
		fmt.Fprintf(sb, "\n\nThe image should be relevant to these hashtags: %s.", strings.Join(req.Options.Hashtags, ", "))
	}
}

func truncateSource(content string) string {
	runes := []rune(content)
	if len(runes) <= maxSourceRunes {
		return content
	}
	return string(runes[:maxSourceRunes])
}
