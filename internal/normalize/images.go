package normalize

import (
	"phonehub/internal/provider"
)

// brandFallbackImages is the provider-independent static fallback set: when a
// source supplies no usable imagery, listings still get a brand placeholder.
var brandFallbackImages = map[string][]string{
	"samsung":  {"https://static.phonehub.dev/brands/samsung.png"},
	"apple":    {"https://static.phonehub.dev/brands/apple.png"},
	"xiaomi":   {"https://static.phonehub.dev/brands/xiaomi.png"},
	"google":   {"https://static.phonehub.dev/brands/google.png"},
	"oneplus":  {"https://static.phonehub.dev/brands/oneplus.png"},
	"oppo":     {"https://static.phonehub.dev/brands/oppo.png"},
	"vivo":     {"https://static.phonehub.dev/brands/vivo.png"},
	"realme":   {"https://static.phonehub.dev/brands/realme.png"},
	"motorola": {"https://static.phonehub.dev/brands/motorola.png"},
	"nothing":  {"https://static.phonehub.dev/brands/nothing.png"},
}

const genericFallbackImage = "https://static.phonehub.dev/brands/generic.png"

// collectImages evaluates the image precedence list once: primary image,
// then gallery, then the brand fallback set, deduplicated in order.
func collectImages(raw provider.RawDevice) []string {
	candidates := make([]string, 0, 2+len(raw.Gallery))
	candidates = append(candidates, raw.Image)
	candidates = append(candidates, raw.Gallery...)
	if fallbacks, ok := brandFallbackImages[BrandSlug(raw.Brand)]; ok {
		candidates = append(candidates, fallbacks...)
	} else {
		candidates = append(candidates, genericFallbackImage)
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, u := range candidates {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
