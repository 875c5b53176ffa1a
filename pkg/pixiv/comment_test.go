package pixiv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommentEntryText(t *testing.T) {
	stamp := "301"

	tests := []struct {
		name    string
		content string
		stampID *string
		want    string
	}{
		{"plain comment", "great work", nil, "great work "},
		{"comment with stamp", "great work", &stamp, "great work (Stamp 301)"},
		{"pure stamp", "", &stamp, " (Stamp 301)"},
		{"empty comment", "", nil, " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := CommentEntry{Content: tt.content, StampID: tt.stampID}
			assert.Equal(t, tt.want, entry.Text())
		})
	}
}
