package media

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

const upperhex = "0123456789ABCDEF"

var previewableExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"svg":  {},
}

// SanitizeFilename turns a user supplied name into a URL-safe key segment.
// Existing percent escapes are decoded first, whitespace becomes '-', and everything outside
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) is percent-encoded. Sanitizing twice gives the same result.
func SanitizeFilename(name string) string {
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}

	var b strings.Builder
	b.Grow(len(name))

	for i := 0; i < len(name); {
		r, size := utf8.DecodeRuneInString(name[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			writeEscaped(&b, name[i])
		case unicode.IsSpace(r):
			b.WriteByte('-')
		case size == 1 && isUnreserved(name[i]):
			b.WriteByte(name[i])
		default:
			for j := 0; j < size; j++ {
				writeEscaped(&b, name[i+j])
			}
		}
		i += size
	}

	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

func writeEscaped(b *strings.Builder, c byte) {
	b.WriteByte('%')
	b.WriteByte(upperhex[c>>4])
	b.WriteByte(upperhex[c&15])
}

// TrimDirectory strips leading and trailing slashes from a directory path.
func TrimDirectory(directory string) string {
	return strings.Trim(directory, "/")
}

// ObjectKey derives the storage key for a file uploaded into directory.
// An empty directory yields the bare filename.
func ObjectKey(directory, name string) string {
	filename := SanitizeFilename(name)
	if dir := TrimDirectory(directory); dir != "" {
		return dir + "/" + filename
	}
	return filename
}

// ListPrefix is the listing prefix for a directory: the trimmed path plus a trailing slash.
func ListPrefix(directory string) string {
	if dir := TrimDirectory(directory); dir != "" {
		return dir + "/"
	}
	return ""
}

// ScopeKey places a key under a lease key prefix. An empty prefix leaves the key unchanged.
func ScopeKey(prefix, key string) string {
	if p := TrimDirectory(prefix); p != "" {
		return p + "/" + key
	}
	return key
}

// UnscopeKey strips a lease key prefix from a stored key.
func UnscopeKey(prefix, key string) string {
	if p := TrimDirectory(prefix); p != "" {
		return strings.TrimPrefix(key, p+"/")
	}
	return key
}

// ObjectToMedia translates a stored object key into a file record.
func ObjectToMedia(key, readURL string) Media {
	directory, filename := "", key
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		directory = key[:idx]
		filename = key[idx+1:]
	}

	item := Media{
		ID:        key,
		Filename:  filename,
		Directory: directory,
		Type:      TypeFile,
	}

	if IsPreviewable(filename) {
		dirPart := ""
		if directory != "" {
			dirPart = directory + "/"
		}
		item.PreviewSrc = withTrailingSlash(readURL) + dirPart + filename
	}

	return item
}

// PrefixToMedia translates a listing common prefix into a directory record.
func PrefixToMedia(prefix string) Media {
	id := prefix
	if idx := strings.LastIndex(prefix, "/"); idx >= 0 {
		id = prefix[:idx]
	}

	return Media{
		ID:        id,
		Filename:  id,
		Directory: "",
		Type:      TypeDir,
	}
}

// IsPreviewable reports whether the filename has an image extension browsers can render.
func IsPreviewable(filename string) bool {
	dot := strings.LastIndex(filename, ".")
	if dot < 0 {
		return false
	}
	_, ok := previewableExtensions[strings.ToLower(filename[dot+1:])]
	return ok
}

// DefaultReadURL is the public domain of a bucket.
func DefaultReadURL(bucket string) string {
	return "//" + bucket + ".s3.amazonaws.com"
}

func withTrailingSlash(base string) string {
	if strings.HasSuffix(base, "/") {
		return base
	}
	return base + "/"
}
