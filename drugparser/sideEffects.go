package drugparser

import (
	"strings"

	"github.com/giygas/rxu-api/drugparser/entities"
)

var seriousKeywords = []string{
	"severe", "major", "serious", "life-threatening", "rare",
	"hemorrhage", "anaphylaxis", "apoplexy",
}

// parseSideEffects reads the "effect|frequency|severity;..." column.
// Entries carrying only the effect text get their categories from keywords.
func parseSideEffects(column string) []entities.SideEffect {
	var effects []entities.SideEffect

	for _, entry := range splitList(column) {
		parts := strings.Split(entry, "|")
		effect := strings.TrimSpace(parts[0])
		if effect == "" {
			continue
		}

		frequency, severity := classifySideEffect(effect)
		if len(parts) > 1 {
			if f := normalizeFrequency(parts[1]); f != "" {
				frequency = f
			}
		}
		if len(parts) > 2 {
			if s := normalizeSeverity(parts[2]); s != "" {
				severity = s
			}
		}

		effects = append(effects, entities.SideEffect{
			Effect:    effect,
			Frequency: frequency,
			Severity:  severity,
		})
	}

	return effects
}

// classifySideEffect derives frequency and severity from the effect wording
func classifySideEffect(effect string) (frequency string, severity string) {
	lower := strings.ToLower(effect)

	if containsAny(lower, seriousKeywords) {
		switch {
		case strings.Contains(lower, "rare"):
			frequency = entities.FrequencyRare
		case containsAny(lower, []string{"major", "severe"}):
			frequency = entities.FrequencyUncommon
		default:
			frequency = entities.FrequencyRare
		}
		return frequency, entities.SeveritySevere
	}

	switch {
	case containsAny(lower, []string{"uncommon", "occasional"}):
		frequency = entities.FrequencyUncommon
	default:
		frequency = entities.FrequencyCommon
	}

	switch {
	case strings.Contains(lower, "moderate"):
		severity = entities.SeverityModerate
	default:
		severity = entities.SeverityMild
	}

	return frequency, severity
}

func normalizeFrequency(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "common", "frequent", "very common":
		return entities.FrequencyCommon
	case "uncommon", "occasional", "infrequent":
		return entities.FrequencyUncommon
	case "rare", "very rare":
		return entities.FrequencyRare
	}
	return ""
}

func normalizeSeverity(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mild", "minor":
		return entities.SeverityMild
	case "moderate":
		return entities.SeverityModerate
	case "severe", "serious", "major", "life-threatening":
		return entities.SeveritySevere
	}
	return ""
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
