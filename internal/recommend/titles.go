package recommend

import (
	"fmt"
	"strings"
)

// TitleCount is the number of titles requested from the completion backend.
const TitleCount = 5

const instructionTemplate = "Act as a Movies Recommendation system and suggest some movies for the query: %s. " +
	"Only give me names of %d movies, comma separated like the example result given ahead. " +
	"Example Result: Gadar, Sholay , Don , Golmaal , koi mil Gaya"

// fallbackTitles is used whenever the completion backend is unavailable or fails.
var fallbackTitles = [TitleCount]string{
	"The Shawshank Redemption",
	"The Godfather",
	"The Dark Knight",
	"Pulp Fiction",
	"Forrest Gump",
}

// FallbackTitles returns a fresh copy of the fixed fallback list.
func FallbackTitles() []string {
	out := make([]string, len(fallbackTitles))
	copy(out, fallbackTitles[:])
	return out
}

// BuildInstruction embeds prompt in the completion instruction.
func BuildInstruction(prompt string) string {
	return fmt.Sprintf(instructionTemplate, strings.TrimSpace(prompt), TitleCount)
}

// ParseTitles splits completion text on commas and trims each fragment.
// Fragments keep their position even when empty; the lookup of an empty
// title yields no matches. Short lists are returned as-is.
func ParseTitles(text string) []string {
	parts := strings.Split(text, ",")
	titles := make([]string, len(parts))
	for i, part := range parts {
		titles[i] = strings.TrimSpace(part)
	}
	return titles
}
