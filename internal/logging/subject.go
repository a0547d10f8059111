package logging

import "strings"

// FormatSubject builds the stage/asset prefix shown ahead of console messages,
// for example "Transcribe · 4f2a91c0". Asset ids are shortened to eight
// characters.
func FormatSubject(stage, assetID string) string {
	stage = strings.TrimSpace(stage)
	assetID = strings.TrimSpace(assetID)
	if len(assetID) > 8 {
		assetID = assetID[:8]
	}
	parts := make([]string, 0, 2)
	if stage != "" {
		parts = append(parts, strings.ToUpper(stage[:1])+strings.ToLower(stage[1:]))
	}
	if assetID != "" {
		parts = append(parts, assetID)
	}
	return strings.Join(parts, " · ")
}
