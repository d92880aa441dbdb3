//nolint:revive // types is a standard Go package name pattern
package types

// MatchMode controls how strictly job keywords must appear in generated bullets
type MatchMode string

// Keyword match modes
const (
	MatchModeExact    MatchMode = "exact"
	MatchModeFlexible MatchMode = "flexible"
)

// Valid reports whether the mode is known
func (m MatchMode) Valid() bool {
	return m == MatchModeExact || m == MatchModeFlexible
}

// BulletPoint is one generated resume bullet with its width measurement
type BulletPoint struct {
	Text         string  `json:"text"`
	VisualWidth  float64 `json:"visualWidth"`
	ExceedsWidth bool    `json:"exceedsWidth"`
}

// RoleBullets carries the bullets for one role alongside its display label
type RoleBullets struct {
	RoleKey RoleKey       `json:"roleKey"`
	Label   string        `json:"label,omitempty"`
	Bullets []BulletPoint `json:"bullets"`
}

// BulletOutput is the output of bullet synthesis
type BulletOutput struct {
	BulletsByRole   map[RoleKey][]BulletPoint `json:"bulletsByRole"`
	KeywordsUsed    []string                  `json:"keywordsUsed"`
	KeywordsNotUsed []string                  `json:"keywordsNotUsed"`
}

// TotalBullets counts bullets across all roles
func (o *BulletOutput) TotalBullets() int {
	if o == nil {
		return 0
	}
	n := 0
	for _, bullets := range o.BulletsByRole {
		n += len(bullets)
	}
	return n
}
