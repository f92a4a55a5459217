package snapcatalog

import (
	"net/url"
	"strings"
)

// SocialProfileHosts are hosts whose single-segment paths are user profiles.
var SocialProfileHosts = []string{
	"twitter.com",
	"x.com",
	"instagram.com",
	"tiktok.com",
	"threads.net",
	"bsky.app",
	"linkedin.com",
}

// reservedProfilePaths are first path segments that are not profiles.
var reservedProfilePaths = map[string]bool{
	"search": true, "hashtag": true, "explore": true, "i": true,
	"home": true, "intent": true, "share": true, "p": true,
	"reel": true, "tags": true, "login": true, "status": true,
}

// IsSocialProfileURL reports whether rawURL points at a profile page on a
// known social platform ("https://x.com/anthonybourdain", "https://www.tiktok.com/@chef",
// "https://www.linkedin.com/in/someone").
func IsSocialProfileURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "mobile.")

	known := false
	for _, h := range SocialProfileHosts {
		if host == h {
			known = true
			break
		}
	}
	if !known {
		return false
	}

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) == 0 || segs[0] == "" {
		return false
	}
	first := strings.ToLower(segs[0])
	if reservedProfilePaths[first] {
		return false
	}

	switch host {
	case "linkedin.com":
		return len(segs) == 2 && (first == "in" || first == "company")
	case "bsky.app":
		return len(segs) == 2 && first == "profile"
	default:
		return len(segs) == 1
	}
}

// firstSocialProfile returns the first profile link in links, or "".
func firstSocialProfile(links []string) string {
	for _, l := range links {
		if IsSocialProfileURL(l) {
			return l
		}
	}
	return ""
}
