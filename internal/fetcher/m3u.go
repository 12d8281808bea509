package fetcher

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/voyagen/nowplaying/internal/models"
)

var (
	reDuration  = regexp.MustCompile(`^#EXTINF:\s*(-?\d+)`)
	reTvgName   = regexp.MustCompile(`tvg-name="([^"]*)"`)
	reTvgID     = regexp.MustCompile(`tvg-id="([^"]*)"`)
	reGroup     = regexp.MustCompile(`group-title="([^"]*)"`)
)

var errNoTitle = errors.New("no title in EXTINF")

// ParsePlaylist reads an M3U playlist and returns one program draft per entry.
// Drafts carry no ChannelID; the importer sets it.
func ParsePlaylist(r io.Reader) ([]models.Program, error) {
	var programs []models.Program
	scanner := bufio.NewScanner(r)
	// Some playlists have very long EXTINF lines.
	const maxSize = 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxSize)

	var extinf string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case strings.HasPrefix(strings.ToUpper(line), "#EXTINF"):
			// A previous EXTINF without a URL is dropped.
			extinf = line
		case strings.HasPrefix(line, "#"):
			// #EXTM3U, #EXTVLCOPT and other directives carry nothing we store.
		default:
			if extinf == "" {
				continue
			}
			p, err := programFromEntry(extinf, line)
			extinf = ""
			if err != nil {
				continue
			}
			programs = append(programs, p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return programs, nil
}

func programFromEntry(extinf, url string) (models.Program, error) {
	title := titleFromEXTINF(extinf)
	if title == "" {
		return models.Program{}, errNoTitle
	}
	p := models.Program{
		Title:       title,
		EmbedURL:    &url,
		ContentKind: kindFromURL(url),
		Tags:        matchFirstPtr(reGroup, extinf),
	}
	if m := reDuration.FindStringSubmatch(extinf); len(m) == 2 {
		if secs, err := strconv.Atoi(m[1]); err == nil && secs > 0 {
			p.DurationSeconds = &secs
		}
	}
	return p, nil
}

// titleFromEXTINF prefers tvg-name, then the display name after the comma, then tvg-id.
func titleFromEXTINF(extinf string) string {
	if n := matchFirst(reTvgName, extinf); n != "" {
		return n
	}
	if n := displayName(extinf); n != "" {
		return n
	}
	return matchFirst(reTvgID, extinf)
}

// displayName returns the text after the first comma outside quoted attribute values.
func displayName(extinf string) string {
	quoted := false
	for i, r := range extinf {
		switch r {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				return strings.TrimSpace(extinf[i+1:])
			}
		}
	}
	return ""
}

func matchFirst(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func matchFirstPtr(re *regexp.Regexp, s string) *string {
	v := matchFirst(re, s)
	if v == "" {
		return nil
	}
	return &v
}

// kindFromURL treats direct file URLs as on-demand video and anything else as a live stream.
func kindFromURL(url string) string {
	lower := strings.ToLower(url)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	for _, ext := range []string{".mp4", ".mkv", ".webm", ".mov"} {
		if strings.HasSuffix(lower, ext) {
			return models.ContentKindVideo
		}
	}
	return models.ContentKindLive
}
