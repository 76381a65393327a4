package mediaclient

import (
	"net/url"
	"regexp"
	"strings"
)

const directDownloadURL = "https://drive.google.com/uc?export=download&id="

// File-hosting hosts whose share links carry no file extension
var shareHosts = map[string]bool{
	"drive.google.com": true,
	"docs.google.com":  true,
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

var (
	fileViewPattern = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
	idParamPattern  = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
)

// IsFetchable reports whether rawURL looks like media this client can download
func IsFetchable(rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return false
	}

	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}

	if shareHosts[strings.ToLower(parsed.Hostname())] {
		return true
	}

	path := strings.ToLower(parsed.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	return false
}

// ResolveDirectURL rewrites file-hosting share links into direct download links.
// Links that are not recognised share links are returned unchanged.
func ResolveDirectURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)

	parsed, err := url.Parse(rawURL)
	if err != nil || !shareHosts[strings.ToLower(parsed.Hostname())] {
		return rawURL
	}

	fileID := ""
	switch {
	case fileViewPattern.MatchString(parsed.Path):
		// .../file/d/<id>/view
		fileID = fileViewPattern.FindStringSubmatch(parsed.Path)[1]
	case strings.HasSuffix(parsed.Path, "/open"), strings.HasSuffix(parsed.Path, "/uc"):
		// .../open?id=<id> and .../uc?id=<id>
		if m := idParamPattern.FindStringSubmatch("?" + parsed.RawQuery); m != nil {
			fileID = m[1]
		}
	}

	if fileID == "" {
		return rawURL
	}

	// confirm=t skips the virus-scan interstitial served for large files
	return directDownloadURL + fileID + "&confirm=t"
}
