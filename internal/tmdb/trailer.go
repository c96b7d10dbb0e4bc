package tmdb

import "strings"

var trailerPreference = []string{"Trailer", "Teaser", "Clip", "Featurette"}

// SelectTrailer picks the best video to play for a movie: a YouTube trailer
// when one exists, then teasers, clips, and featurettes, then any YouTube
// video, then whatever came first. Official uploads win ties within a type.
func SelectTrailer(videos []Video) (Video, bool) {
	if len(videos) == 0 {
		return Video{}, false
	}
	for _, kind := range trailerPreference {
		var fallback *Video
		for i := range videos {
			v := videos[i]
			if !isYouTube(v) || !strings.EqualFold(v.Type, kind) {
				continue
			}
			if v.Official {
				return v, true
			}
			if fallback == nil {
				fallback = &videos[i]
			}
		}
		if fallback != nil {
			return *fallback, true
		}
	}
	for _, v := range videos {
		if isYouTube(v) {
			return v, true
		}
	}
	return videos[0], true
}

func isYouTube(v Video) bool {
	return strings.EqualFold(v.Site, "YouTube") && strings.TrimSpace(v.Key) != ""
}
