package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hero.png", "hero.png"},
		{"space", "My Photo.png", "My-Photo.png"},
		{"tabs and newlines", "a\tb\nc.jpg", "a-b-c.jpg"},
		{"unicode whitespace", "a\u00a0b\u3000c.jpg", "a-b-c.jpg"},
		{"reserved characters", "a&b=c?.png", "a%26b%3Dc%3F.png"},
		{"slash is encoded", "a/b.png", "a%2Fb.png"},
		{"hash and plus", "#1+2.svg", "%231%2B2.svg"},
		{"unreserved marks kept", "it's(1)!~*_.png", "it's(1)!~*_.png"},
		{"utf8", "café.jpg", "caf%C3%A9.jpg"},
		{"existing escapes decoded", "My%20Photo.png", "My-Photo.png"},
		{"stray percent", "100%.png", "100%25.png"},
		{"lowercase escape normalized", "a%2fb.png", "a%2Fb.png"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilename_Idempotent(t *testing.T) {
	inputs := []string{
		"My Photo.png",
		"a&b=c?.png",
		"100%.png",
		"%FF%FE raw.bin",
		"café au lait.jpg",
		"already%2Fencoded.svg",
		"  leading and trailing  ",
		"%",
	}

	for _, input := range inputs {
		once := SanitizeFilename(input)
		assert.Equal(t, once, SanitizeFilename(once), input)
		assert.NotContains(t, once, " ", input)
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		directory string
		name      string
		want      string
	}{
		{"/hero-image/", "My Photo.png", "hero-image/My-Photo.png"},
		{"hero-image", "My Photo.png", "hero-image/My-Photo.png"},
		{"//nested/dir//", "a.txt", "nested/dir/a.txt"},
		{"", "a.txt", "a.txt"},
		{"/", "a.txt", "a.txt"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectKey(tt.directory, tt.name), "%q + %q", tt.directory, tt.name)
	}
}

func TestListPrefix(t *testing.T) {
	assert.Equal(t, "", ListPrefix(""))
	assert.Equal(t, "", ListPrefix("/"))
	assert.Equal(t, "hero-image/", ListPrefix("/hero-image/"))
	assert.Equal(t, "a/b/", ListPrefix("a/b"))
}

func TestScopeKey(t *testing.T) {
	assert.Equal(t, "hero/a.png", ScopeKey("", "hero/a.png"))
	assert.Equal(t, "users/u1/hero/a.png", ScopeKey("/users/u1/", "hero/a.png"))
	assert.Equal(t, "users/u1/", ScopeKey("users/u1", ListPrefix("")))

	assert.Equal(t, "hero/a.png", UnscopeKey("users/u1", "users/u1/hero/a.png"))
	assert.Equal(t, "hero/", UnscopeKey("users/u1/", "users/u1/hero/"))
	assert.Equal(t, "other/a.png", UnscopeKey("", "other/a.png"))
}

func TestObjectToMedia(t *testing.T) {
	readURL := "//cms-assets.s3.amazonaws.com"

	t.Run("nested image", func(t *testing.T) {
		item := ObjectToMedia("hero-image/My-Photo.png", readURL)
		assert.Equal(t, Media{
			ID:         "hero-image/My-Photo.png",
			Filename:   "My-Photo.png",
			Directory:  "hero-image",
			Type:       TypeFile,
			PreviewSrc: "//cms-assets.s3.amazonaws.com/hero-image/My-Photo.png",
		}, item)
	})

	t.Run("root image", func(t *testing.T) {
		item := ObjectToMedia("logo.SVG", readURL+"/")
		assert.Equal(t, "", item.Directory)
		assert.Equal(t, "logo.SVG", item.Filename)
		assert.Equal(t, "//cms-assets.s3.amazonaws.com/logo.SVG", item.PreviewSrc)
	})

	t.Run("non image", func(t *testing.T) {
		item := ObjectToMedia("docs/report.pdf", readURL)
		assert.Equal(t, TypeFile, item.Type)
		assert.Empty(t, item.PreviewSrc)
	})
}

func TestIsPreviewable(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"a.jpg", true},
		{"a.JPEG", true},
		{"a.png", true},
		{"a.webp", true},
		{"a.svg", true},
		{"a.gif", false},
		{"a.png.txt", false},
		{"png", false},
		{"a.", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPreviewable(tt.filename), tt.filename)
	}
}

func TestPrefixToMedia(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"hero-image/", "hero-image"},
		{"blog/2024/", "blog/2024"},
	}

	for _, tt := range tests {
		item := PrefixToMedia(tt.prefix)
		assert.Equal(t, tt.want, item.ID)
		assert.Equal(t, tt.want, item.Filename)
		assert.Equal(t, "", item.Directory)
		assert.Equal(t, TypeDir, item.Type)
		assert.Empty(t, item.PreviewSrc)
	}
}
