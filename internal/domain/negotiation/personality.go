package negotiation

import "strings"

type Personality string

const (
	PersonalityAggressive Personality = "aggressive"
	PersonalityDiplomatic Personality = "diplomatic"
	PersonalityAnalytical Personality = "analytical"
	PersonalityWildcard   Personality = "wildcard"
	PersonalityCustom     Personality = "custom"
)

// Profile is the numeric parameter set a personality selects. StartLow and
// StartHigh are fractions of the agent's anchor price.
type Profile struct {
	StartLow       float64 `json:"start_low"`
	StartHigh      float64 `json:"start_high"`
	ConcessionRate float64 `json:"concession_rate"`
}

func (p Profile) OpeningFactor() float64 {
	return (p.StartLow + p.StartHigh) / 2
}

var DefaultBuyerProfile = Profile{StartLow: 0.55, StartHigh: 0.60, ConcessionRate: 0.12}

var DefaultSellerProfile = Profile{StartLow: 1.30, StartHigh: 1.40, ConcessionRate: 0.12}

var buyerProfiles = map[Personality]Profile{
	PersonalityAggressive: {StartLow: 0.50, StartHigh: 0.55, ConcessionRate: 0.20},
	PersonalityDiplomatic: {StartLow: 0.58, StartHigh: 0.62, ConcessionRate: 0.10},
	PersonalityAnalytical: {StartLow: 0.56, StartHigh: 0.60, ConcessionRate: 0.15},
}

var sellerProfiles = map[Personality]Profile{
	PersonalityAggressive: {StartLow: 1.35, StartHigh: 1.40, ConcessionRate: 0.20},
	PersonalityDiplomatic: {StartLow: 1.30, StartHigh: 1.35, ConcessionRate: 0.10},
	PersonalityAnalytical: {StartLow: 1.32, StartHigh: 1.38, ConcessionRate: 0.15},
}

// Display labels seen at the boundary, lower-cased.
var personalityAliases = map[string]Personality{
	"aggressive":            PersonalityAggressive,
	"aggressive negotiator": PersonalityAggressive,
	"aggressive trader":     PersonalityAggressive,
	"diplomatic":            PersonalityDiplomatic,
	"diplomatic buyer":      PersonalityDiplomatic,
	"diplomatic seller":     PersonalityDiplomatic,
	"analytical":            PersonalityAnalytical,
	"data analyst":          PersonalityAnalytical,
	"data-driven analyst":   PersonalityAnalytical,
	"data-driven seller":    PersonalityAnalytical,
	"wildcard":              PersonalityWildcard,
	"creative wildcard":     PersonalityWildcard,
	"custom":                PersonalityCustom,
}

// ParsePersonality resolves a display label or tag. Unknown labels resolve to
// PersonalityCustom.
func ParsePersonality(label string) Personality {
	key := strings.ToLower(strings.Join(strings.Fields(label), " "))
	if p, ok := personalityAliases[key]; ok {
		return p
	}
	return PersonalityCustom
}

// ProfileFor returns the role's parameter set for p, or the role default.
func ProfileFor(role Role, p Personality) Profile {
	if role == RoleSeller {
		if prof, ok := sellerProfiles[p]; ok {
			return prof
		}
		return DefaultSellerProfile
	}
	if prof, ok := buyerProfiles[p]; ok {
		return prof
	}
	return DefaultBuyerProfile
}

type CatalogEntry struct {
	Personality Personality `json:"personality"`
	Labels      []string    `json:"labels"`
	Buyer       Profile     `json:"buyer"`
	Seller      Profile     `json:"seller"`
}

var catalogOrder = []Personality{
	PersonalityAggressive,
	PersonalityDiplomatic,
	PersonalityAnalytical,
	PersonalityWildcard,
	PersonalityCustom,
}

var catalogLabels = map[Personality][]string{
	PersonalityAggressive: {"Aggressive Negotiator", "Aggressive Trader"},
	PersonalityDiplomatic: {"Diplomatic Buyer", "Diplomatic Seller"},
	PersonalityAnalytical: {"Data Analyst", "Data-Driven Analyst", "Data-Driven Seller"},
	PersonalityWildcard:   {"Creative Wildcard"},
	PersonalityCustom:     {"Custom"},
}

func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, 0, len(catalogOrder))
	for _, p := range catalogOrder {
		labels := append([]string(nil), catalogLabels[p]...)
		out = append(out, CatalogEntry{
			Personality: p,
			Labels:      labels,
			Buyer:       ProfileFor(RoleBuyer, p),
			Seller:      ProfileFor(RoleSeller, p),
		})
	}
	return out
}
