package types

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[?\[\]/\\=<>:;,'"&$#*()|~` + "`" + `!{}%+’«»”“\x00-\x1f]`)
	filenameSpaces      = regexp.MustCompile(`[\s-]+`)
)

// SanitizeFilename strips characters that are unsafe in file names and
// replaces whitespace runs with a single dash.
func SanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = filenameSpaces.ReplaceAllString(name, "-")
	return strings.Trim(name, ".-_")
}

// FilenameFromURL returns the last path segment of rawURL, or "" if there is none.
func FilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}

	return base
}
