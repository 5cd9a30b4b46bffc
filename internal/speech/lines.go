// Every spoken string lives in this file. Edit it to change the guide's
// personality. Keep lines short; the TTS engine handles inflection.

package speech

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

var welcomeLines = []string{
	"Welcome to my digital connection hub.",
	"Explore my presence across the digital landscape.",
	"Connect with me through various social platforms.",
	"Navigate through my digital ecosystem.",
}

// WelcomeLines returns every welcome variant, e.g. for prefetching. When
// name is set the first variant greets on the owner's behalf.
func WelcomeLines(name string) []string {
	lines := append([]string(nil), welcomeLines...)
	if name != "" {
		lines[0] = fmt.Sprintf("Welcome to %s's digital connection hub.", name)
	}
	return lines
}

// LineWelcome picks a welcome line at random. r may be nil.
func LineWelcome(r *rand.Rand, name string) string {
	lines := WelcomeLines(name)
	if r == nil {
		return lines[rand.Intn(len(lines))]
	}
	return lines[r.Intn(len(lines))]
}

// LineDescribe is spoken after hovering a card long enough.
func LineDescribe(platform, description string) string {
	return fmt.Sprintf("Opening %s. %s", platform, description)
}

// LineOpening is spoken shortly after a card is clicked.
func LineOpening(platform string) string {
	return fmt.Sprintf("Opening %s", platform)
}

var bracketPrefix = regexp.MustCompile(`^\[[A-Za-z]+\]\s*`)
var ansiCodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)
var spaceRuns = regexp.MustCompile(`\s+`)

// CleanForSpeech strips formatting artifacts that shouldn't be spoken.
func CleanForSpeech(msg string) string {
	cleaned := ansiCodes.ReplaceAllString(msg, "")
	cleaned = bracketPrefix.ReplaceAllString(cleaned, "")
	cleaned = spaceRuns.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
