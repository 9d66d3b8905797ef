// Package download fetches short-form videos with yt-dlp.
package download

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
)

// MaxProfileVideos caps how many recent videos a profile request fetches.
const MaxProfileVideos = 10

var linkPattern = regexp.MustCompile(`https?://(?:www\.)?tiktok\.com/[^\s]+`)

// Kind is the shape of a supported link.
type Kind int

const (
	KindUnsupported Kind = iota
	KindVideo
	KindProfile
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindProfile:
		return "profile"
	default:
		return "unsupported"
	}
}

// Entity is a URL span reported by the chat platform. Offset and Length
// count UTF-16 code units.
type Entity struct {
	Type   string
	Offset int
	Length int
}

// ExtractLinks returns the tiktok.com links in text. When the pattern finds
// none, url entities containing tiktok.com are used instead.
func ExtractLinks(text string, entities []Entity) []string {
	if links := linkPattern.FindAllString(text, -1); len(links) > 0 {
		return links
	}

	var links []string
	units := utf16.Encode([]rune(text))
	for _, e := range entities {
		if e.Type != "url" || e.Offset < 0 || e.Length <= 0 || e.Offset+e.Length > len(units) {
			continue
		}
		candidate := string(utf16.Decode(units[e.Offset : e.Offset+e.Length]))
		if strings.Contains(candidate, "tiktok.com") {
			links = append(links, candidate)
		}
	}
	return links
}

// Classify reports whether link names a single video or a profile.
func Classify(link string) Kind {
	switch {
	case strings.Contains(link, "/video/"):
		return KindVideo
	case strings.Contains(link, "/@"):
		return KindProfile
	default:
		return KindUnsupported
	}
}

// ClampCount bounds a requested profile video count to [1, MaxProfileVideos].
func ClampCount(n int) int {
	return min(MaxProfileVideos, max(1, n))
}

// ParseCount reads a reply made only of digits and clamps it. Any other text
// reports false.
func ParseCount(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		// Too many digits to fit an int is still a request for the maximum.
		return MaxProfileVideos, true
	}
	return ClampCount(n), true
}
