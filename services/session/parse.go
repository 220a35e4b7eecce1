package session

import (
	"strconv"
	"strings"
	"unicode"

	"calibook/models"
)

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func isCancel(text string) bool {
	switch normalize(text) {
	case "cancel", "stop", "quit", "exit":
		return true
	}
	return false
}

func isBack(text string) bool {
	return normalize(text) == "back"
}

func isAffirmative(text string) bool {
	switch normalize(text) {
	case "yes", "y", "yeah", "ok", "okay", "confirm", "si", "sí", "da":
		return true
	}
	return false
}

func isNegative(text string) bool {
	switch normalize(text) {
	case "no", "n", "nope":
		return true
	}
	return false
}

// parseOrdinal reads a small positive integer selection, returning 0 when the
// input is not numeric.
func parseOrdinal(text string) int {
	n, err := strconv.Atoi(normalize(text))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// parseCategory accepts the category name or its menu number.
func parseCategory(text string) (string, bool) {
	switch normalize(text) {
	case "1", models.CategoryPrivate, "incall":
		return models.CategoryPrivate, true
	case "2", models.CategoryOutcall:
		return models.CategoryOutcall, true
	}
	return "", false
}

// parseDuration reads a duration in minutes, tolerating suffixes like
// "30min" or "30 min".
func parseDuration(text string) (int, bool) {
	t := normalize(text)
	t = strings.TrimSuffix(t, "minutes")
	t = strings.TrimSuffix(t, "min")
	t = strings.TrimSpace(t)
	n, err := strconv.Atoi(t)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseExtras splits a comma-separated extras answer; "none"/"no"/"skip"
// yields an empty selection.
func parseExtras(text string) []string {
	t := normalize(text)
	switch t {
	case "", "none", "no", "skip", "-":
		return nil
	}
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// detectLanguage takes a cheap guess from the script of the first message;
// localization proper lives outside the core.
func detectLanguage(text string) string {
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			return "ru"
		case unicode.Is(unicode.Hebrew, r):
			return "he"
		case unicode.Is(unicode.Arabic, r):
			return "ar"
		}
	}
	return "en"
}
