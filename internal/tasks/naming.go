package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/weathertunes/internal/models"
)

type language struct {
	name string // display name
	term string // appended to search queries
}

var languages = map[string]language{
	"english":    {"English", ""},
	"hindi":      {"Hindi", "hindi"},
	"spanish":    {"Spanish", "spanish"},
	"french":     {"French", "french"},
	"japanese":   {"Japanese", "japanese"},
	"korean":     {"Korean", "korean"},
	"portuguese": {"Portuguese", "portuguese"},
	"german":     {"German", "german"},
	"italian":    {"Italian", "italian"},
	"chinese":    {"Chinese", "chinese"},
	"tamil":      {"Tamil", "tamil"},
	"telugu":     {"Telugu", "telugu"},
	"punjabi":    {"Punjabi", "punjabi"},
}

var moodEmoji = map[string]string{
	"upbeat":     "☀️",
	"cozy":       "🌧️",
	"relaxed":    "☁️",
	"balanced":   "⛅",
	"calm":       "❄️",
	"mysterious": "🌫️",
	"energetic":  "💨",
	"intense":    "⛈️",
	"tropical":   "🌡️",
	"warm":       "🧊",
	"focus":      "🧠",
	"workout":    "💪",
	"party":      "🎉",
	"sleep":      "😴",
	"commute":    "🚗",
}

// LanguageTerm returns the search term for a language. English and unknown languages add none.
func LanguageTerm(lang string) string {
	return languages[strings.ToLower(strings.TrimSpace(lang))].term
}

// LanguageName returns the display name for a language, defaulting to English.
func LanguageName(lang string) string {
	if l, ok := languages[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return l.name
	}
	if lang = strings.TrimSpace(lang); lang != "" {
		return strings.ToUpper(lang[:1]) + strings.ToLower(lang[1:])
	}
	return "English"
}

// SupportedLanguages lists the language keys accepted by [LanguageTerm].
func SupportedLanguages() []string {
	return []string{
		"english", "hindi", "spanish", "french", "japanese", "korean", "portuguese",
		"german", "italian", "chinese", "tamil", "telugu", "punjabi",
	}
}

// MoodEmoji returns the emoji for a mood type.
func MoodEmoji(mood string) string {
	if e, ok := moodEmoji[strings.ToLower(strings.TrimSpace(mood))]; ok {
		return e
	}
	return "🎶"
}

// PlaylistName builds the default playlist title.
func PlaylistName(w models.WeatherContext, mood models.MoodContext, lang string) string {
	if w.Condition == "" && w.Location == "" {
		label := strings.TrimSpace(mood.Type)
		if label == "" {
			label = "Daily"
		}
		return fmt.Sprintf("WeatherTunes: %s mix (%s)", label, LanguageName(lang))
	}
	return fmt.Sprintf("WeatherTunes: %s in %s (%s)", w.Condition, w.Location, LanguageName(lang))
}

// PlaylistDescription builds the default playlist description.
func PlaylistDescription(mood models.MoodContext, lang string) string {
	return fmt.Sprintf("%s %s | %s playlist | Created by WeatherTunes", MoodEmoji(mood.Type), mood.Suggestion, LanguageName(lang))
}
