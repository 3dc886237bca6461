package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evgkirov/member-content-system/internal/model"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Hello World", "hello-world"},
		{"punctuation collapsed", "What's new, in 2026?", "what-s-new-in-2026"},
		{"leading and trailing junk", "  --Go!  ", "go"},
		{"already a slug", "member-content-system", "member-content-system"},
		{"only junk", "!!!", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, slugify(tc.title))
		})
	}
}

func TestContentBodyToModel(t *testing.T) {
	t.Run("derives slug from title", func(t *testing.T) {
		b := contentBody{Title: "My First Post"}
		content, msg := b.toModel()
		require.Empty(t, msg)
		assert.Equal(t, "my-first-post", content.Slug)
		assert.Equal(t, model.StatusDraft, content.Status)
	})

	t.Run("explicit slug wins", func(t *testing.T) {
		b := contentBody{Title: "My First Post", Slug: "custom"}
		content, msg := b.toModel()
		require.Empty(t, msg)
		assert.Equal(t, "custom", content.Slug)
	})

	t.Run("empty optional fields persist as nil", func(t *testing.T) {
		b := contentBody{Title: "T", MetaTitle: "  "}
		content, msg := b.toModel()
		require.Empty(t, msg)
		assert.Nil(t, content.MetaTitle)
		assert.Nil(t, content.Tags)
	})

	t.Run("rejections", func(t *testing.T) {
		for name, b := range map[string]contentBody{
			"missing title":     {Body: "x"},
			"whitespace title":  {Title: "   "},
			"invalid status":    {Title: "T", Status: "live"},
			"unsluggable title": {Title: "!!!"},
		} {
			_, msg := b.toModel()
			assert.NotEmpty(t, msg, name)
		}
	})

	t.Run("valid statuses accepted", func(t *testing.T) {
		for _, s := range []string{model.StatusDraft, model.StatusPublished, model.StatusArchived} {
			b := contentBody{Title: "T", Status: s}
			content, msg := b.toModel()
			require.Empty(t, msg)
			assert.Equal(t, s, content.Status)
		}
	})
}
