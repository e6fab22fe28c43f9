package ingest

import (
	"regexp"
	"strings"
)

// RoleWeight maps a lowercase substring of a role to its weight.
type RoleWeight struct {
	Substring string
	Weight    float64
}

// RolePolicy decides how much a credit counts and whether it is a
// localization credit. Weights are matched in order, first match wins.
type RolePolicy struct {
	Weights       []RoleWeight
	DefaultWeight float64
	Localization  []*regexp.Regexp
}

func DefaultRolePolicy() RolePolicy {
	return RolePolicy{
		Weights: []RoleWeight{
			{Substring: "director", Weight: 1.5},
			{Substring: "series composition", Weight: 1.3},
			{Substring: "character design", Weight: 1.3},
			{Substring: "music", Weight: 1.2},
			{Substring: "producer", Weight: 1.0},
		},
		DefaultWeight: 0.8,
		Localization: []*regexp.Regexp{
			regexp.MustCompile(`(?i)localization`),
			regexp.MustCompile(`(?i)translator`),
			regexp.MustCompile(`(?i)adr`),
			regexp.MustCompile(`(?i)dub`),
			regexp.MustCompile(`(?i)subtitles?`),
			regexp.MustCompile(`(?i)subtitling`),
			regexp.MustCompile(`(?i)script\s*\(dub\)`),
			regexp.MustCompile(`(?i)english dub`),
		},
	}
}

func (p RolePolicy) Weight(role string) float64 {
	key := strings.ToLower(role)
	for _, w := range p.Weights {
		if strings.Contains(key, w.Substring) {
			return w.Weight
		}
	}
	return p.DefaultWeight
}

func (p RolePolicy) IsLocalization(role string) bool {
	for _, re := range p.Localization {
		if re.MatchString(role) {
			return true
		}
	}
	return false
}
