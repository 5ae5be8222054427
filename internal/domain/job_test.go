package domain

import (
	"errors"
	"testing"
)

func TestParseContentType(t *testing.T) {
	ct, err := ParseContentType("  Twitter ")
	if err != nil {
		t.Fatalf("ParseContentType returned error: %v", err)
	}
	if ct != ContentTypeTwitter {
		t.Fatalf("ParseContentType = %q, want %q", ct, ContentTypeTwitter)
	}

	if _, err := ParseContentType("myspace"); !errors.Is(err, ErrUnknownContentType) {
		t.Fatalf("expected ErrUnknownContentType, got %v", err)
	}
}

func TestContentTypeFamilies(t *testing.T) {
	cases := []struct {
		ct      ContentType
		isImage bool
	}{
		{ContentTypeTwitter, false},
		{ContentTypeInstagram, false},
		{ContentTypeLinkedIn, false},
		{ContentTypeFacebook, false},
		{ContentTypeThumbnail, true},
		{ContentTypeTwitterImage, true},
		{ContentTypeInstagramImage, true},
		{ContentTypeLinkedInImage, true},
		{ContentTypeFacebookImage, true},
	}
	for _, tc := range cases {
		if got := tc.ct.IsImage(); got != tc.isImage {
			t.Errorf("%s.IsImage() = %v, want %v", tc.ct, got, tc.isImage)
		}
	}
}

func TestContentTypePlatform(t *testing.T) {
	if got := ContentTypeTwitterImage.Platform(); got != "twitter" {
		t.Fatalf("Platform = %q, want twitter", got)
	}
	if got := ContentTypeThumbnail.Platform(); got != "" {
		t.Fatalf("thumbnail Platform = %q, want empty", got)
	}
}

func TestContentTypeStorageHint(t *testing.T) {
	if got := ContentTypeThumbnail.StorageHint(); got != "thumbnails" {
		t.Fatalf("StorageHint = %q, want thumbnails", got)
	}
	if got := ContentTypeInstagramImage.StorageHint(); got != "instagram_images" {
		t.Fatalf("StorageHint = %q, want instagram_images", got)
	}
}

func TestJobStatusTerminal(t *testing.T) {
	for _, s := range []JobStatus{JobStatusPending, JobStatusProcessing} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []JobStatus{JobStatusCompleted, JobStatusFailed} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}
