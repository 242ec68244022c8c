package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Compact spec extraction: each helper pulls a short headline out of a
// provider's free-text field. An unmatched pattern falls back to the
// truncated raw string, never to an error.

var (
	megapixelRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*MP`)
	memoryRe    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(TB|GB|MB)`)
	batteryRe   = regexp.MustCompile(`(?i)(\d{3,5})\s*mAh`)
	displayRe   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:-?\s*inch(?:es)?|")`)
	processorRe = regexp.MustCompile(`(?i)\b(snapdragon(?:\s+[\w+]+){1,3}|dimensity\s+\d+\w*(?:\s+(?:pro|plus|max|ultra))?|exynos\s+\d+\w*|kirin\s+\d+\w*|helio\s+\w+|tensor(?:\s+g\d+)?|a\d+(?:\s+pro)?\s+bionic)\b`)
)

const maxRawSpec = 40

// compactCamera renders "50MP+50MP+50MP triple camera with OIS" as
// "50MP + 50MP + 50MP (OIS)".
func compactCamera(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	matches := megapixelRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return truncate(raw)
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, m[1]+"MP")
	}
	out := strings.Join(parts, " + ")
	if strings.Contains(strings.ToUpper(raw), "OIS") {
		out += " (OIS)"
	}
	return out
}

// compactProcessor extracts the chipset family token, e.g.
// "Octa-core Snapdragon 8 Gen 3 (4nm)" -> "Snapdragon 8 Gen 3".
func compactProcessor(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if m := processorRe.FindString(raw); m != "" {
		return titleizeChipset(m)
	}
	return truncate(raw)
}

// compactMemory extracts the first capacity token, e.g. "12 GB LPDDR5X" -> "12GB".
func compactMemory(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if m := memoryRe.FindStringSubmatch(raw); m != nil {
		return m[1] + strings.ToUpper(m[2])
	}
	return truncate(raw)
}

// compactBattery extracts the capacity, e.g. "Li-Po 4880 mAh, 120W wired" -> "4880mAh".
func compactBattery(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if m := batteryRe.FindStringSubmatch(raw); m != nil {
		return m[1] + "mAh"
	}
	return truncate(raw)
}

// compactDisplay extracts the diagonal, e.g. "6.73 inches LTPO AMOLED" -> "6.73-inch".
func compactDisplay(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if m := displayRe.FindStringSubmatch(raw); m != nil {
		return m[1] + "-inch"
	}
	return truncate(raw)
}

func truncate(s string) string {
	if len(s) <= maxRawSpec {
		return s
	}
	// cut on a rune boundary; provider spec strings carry non-ASCII
	// (units, accents) and a byte-index slice could split one
	cut := maxRawSpec
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}

// titleizeChipset normalizes casing of a matched chipset token so that
// "snapdragon 8 gen 3" and "SNAPDRAGON 8 Gen 3" compare equal downstream.
func titleizeChipset(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		lower := strings.ToLower(w)
		switch lower {
		case "snapdragon", "dimensity", "exynos", "kirin", "helio", "tensor", "bionic", "gen", "pro", "plus", "max", "ultra":
			words[i] = strings.ToUpper(lower[:1]) + lower[1:]
		default:
			words[i] = strings.ToUpper(w)
		}
	}
	return strings.Join(words, " ")
}
