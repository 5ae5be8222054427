package domain

import (
	"strings"
	"time"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further status transitions may occur.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ContentType enumerates the artifact kinds a job may request. Text kinds
// carry the generated post inline; image kinds reference a storage locator.
type ContentType string

const (
	ContentTypeTwitter   ContentType = "twitter"
	ContentTypeInstagram ContentType = "instagram"
	ContentTypeLinkedIn  ContentType = "linkedin"
	ContentTypeFacebook  ContentType = "facebook"

	ContentTypeThumbnail      ContentType = "thumbnail"
	ContentTypeTwitterImage   ContentType = "twitter_image"
	ContentTypeInstagramImage ContentType = "instagram_image"
	ContentTypeLinkedInImage  ContentType = "linkedin_image"
	ContentTypeFacebookImage  ContentType = "facebook_image"
)

// DefaultContentTypes is the artifact set used when a job does not name one.
var DefaultContentTypes = []ContentType{
	ContentTypeTwitter,
	ContentTypeInstagram,
	ContentTypeLinkedIn,
	ContentTypeFacebook,
	ContentTypeThumbnail,
}

var knownContentTypes = map[ContentType]struct{}{
	ContentTypeTwitter:        {},
	ContentTypeInstagram:      {},
	ContentTypeLinkedIn:       {},
	ContentTypeFacebook:       {},
	ContentTypeThumbnail:      {},
	ContentTypeTwitterImage:   {},
	ContentTypeInstagramImage: {},
	ContentTypeLinkedInImage:  {},
	ContentTypeFacebookImage:  {},
}

// ParseContentType validates free-form input against the closed enum.
func ParseContentType(raw string) (ContentType, error) {
	ct := ContentType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownContentTypes[ct]; !ok {
		return "", ErrUnknownContentType
	}
	return ct, nil
}

// IsImage reports whether the content type belongs to the image family.
func (c ContentType) IsImage() bool {
	switch c {
	case ContentTypeThumbnail, ContentTypeTwitterImage, ContentTypeInstagramImage,
		ContentTypeLinkedInImage, ContentTypeFacebookImage:
		return true
	}
	return false
}

// Platform returns the social platform a content type targets. The generic
// thumbnail has no platform.
func (c ContentType) Platform() string {
	switch c {
	case ContentTypeTwitter, ContentTypeTwitterImage:
		return "twitter"
	case ContentTypeInstagram, ContentTypeInstagramImage:
		return "instagram"
	case ContentTypeLinkedIn, ContentTypeLinkedInImage:
		return "linkedin"
	case ContentTypeFacebook, ContentTypeFacebookImage:
		return "facebook"
	}
	return ""
}

// StorageHint is the folder prefix the sink files this kind of artifact under.
func (c ContentType) StorageHint() string {
	if c == ContentTypeThumbnail {
		return "thumbnails"
	}
	if p := c.Platform(); p != "" {
		return p + "_images"
	}
	return "artifacts"
}

// GenerationOptions carries advisory prompt inputs. They shape wording only
// and never affect control flow.
type GenerationOptions struct {
	Tone        string   `json:"tone,omitempty"`
	VisualStyle string   `json:"visual_style,omitempty"`
	Hashtags    []string `json:"hashtags,omitempty"`
}

// Job is one end-to-end repurposing request for a single piece of source
// content.
type Job struct {
	ID              string
	Title           string
	OriginalContent string
	ContentTypes    []ContentType
	Options         GenerationOptions
	Status          JobStatus
	ErrorMessage    string
	Attempts        int
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// Output is one produced artifact belonging to a job. Exactly one of Content
// and FilePath is non-empty; outputs are immutable once created.
type Output struct {
	ID          string
	JobID       string
	ContentType ContentType
	Content     string
	FilePath    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
