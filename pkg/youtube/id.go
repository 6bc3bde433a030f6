package youtube

import "regexp"

var (
	urlIDRe  = regexp.MustCompile(`(?:^|//)(?:(?:www|m)\.)?(?:youtube\.com/(?:watch\?(?:[^#]*&)?v=|embed/)|youtu\.be/)([A-Za-z0-9_-]{11})(?:[?&#/]|$)`)
	bareIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// ExtractID returns the video id from a watch, short, or embed url, or from a
// bare 11 character id.
func ExtractID(url string) (string, bool) {
	if m := urlIDRe.FindStringSubmatch(url); m != nil {
		return m[1], true
	}
	if bareIDRe.MatchString(url) {
		return url, true
	}

	return "", false
}

func IsValidURL(url string) bool {
	_, ok := ExtractID(url)
	return ok
}

func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

func ThumbnailURL(videoID string) string {
	return "https://i.ytimg.com/vi/" + videoID + "/hqdefault.jpg"
}
