package core

import "strings"

// CanonicalWorkshop is the single label the two legacy workshop variants
// collapse into.
const CanonicalWorkshop = "Talleres IA"

// The legacy spreadsheet recorded the same workshop under audience-specific
// names, with and without the dash. Keys are lowercased with whitespace
// runs collapsed to a single space.
var legacyWorkshopLabels = map[string]struct{}{
	"taller ia - administrativos": {},
	"taller ia - abogados":        {},
	"taller ia administrativos":   {},
	"taller ia abogados":          {},
}

// NormalizeService canonicalizes a contracted-service name for display and
// grouping. The two legacy workshop variants collapse to CanonicalWorkshop
// regardless of casing and whitespace; any other input comes back trimmed,
// otherwise unchanged. Empty input yields "". Idempotent.
func NormalizeService(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	key := strings.ToLower(strings.Join(strings.Fields(t), " "))
	if _, ok := legacyWorkshopLabels[key]; ok {
		return CanonicalWorkshop
	}
	return t
}
