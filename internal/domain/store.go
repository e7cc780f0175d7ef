package domain

// Store is the immutable per-tenant configuration. Stores are declared in
// config and never mutated at runtime.
type Store struct {
	ID          string  `json:"id" yaml:"id"`
	Currency    string  `json:"currency" yaml:"currency"`
	DefaultAOV  float64 `json:"default_aov" yaml:"default_aov"`
	PlatformTag string  `json:"platform_tag" yaml:"platform_tag"` // "shopify" or "salla"
	Timezone    string  `json:"timezone" yaml:"timezone"`
}

// SourcePlatform identifies the storefront system an order came from.
// Order IDs are unique per (store, source_platform).
type SourcePlatform string

const (
	PlatformShopify SourcePlatform = "shopify"
	PlatformSalla   SourcePlatform = "salla"
	PlatformManual  SourcePlatform = "manual"
)
