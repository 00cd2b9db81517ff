package budget_router

import (
	"strings"

	"github.com/meysamhadeli/codaiscan/token_management"
)

// Tier is a class of models sharing the same request quotas. Zero means
// unlimited for that dimension.
type Tier struct {
	Name              string `json:"name" yaml:"name"`
	RequestsPerDay    int    `json:"requestsPerDay" yaml:"requestsPerDay"`
	RequestsPerMinute int    `json:"requestsPerMinute" yaml:"requestsPerMinute"`
	rank              int
}

var (
	TierPremium  = Tier{Name: "premium", RequestsPerDay: 50, RequestsPerMinute: 10, rank: 3}
	TierStandard = Tier{Name: "standard", RequestsPerDay: 150, RequestsPerMinute: 15, rank: 2}
	TierLocal    = Tier{Name: "local", rank: 1}
)

// Unlimited is reported as the remaining budget of models without a daily cap.
const Unlimited = 1<<31 - 1

// IsUnlimited reports whether the tier has no daily cap.
func (t Tier) IsUnlimited() bool {
	return t.RequestsPerDay <= 0
}

// TierByName resolves "premium", "standard" or "local".
func TierByName(name string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case TierPremium.Name:
		return TierPremium, true
	case TierStandard.Name:
		return TierStandard, true
	case TierLocal.Name:
		return TierLocal, true
	}
	return Tier{}, false
}

// DefaultModelTiers is the routing table used when configuration adds none,
// read from the embedded model table. Rows without a tier are local.
var DefaultModelTiers = defaultModelTiers()

// DefaultModelProviders maps every model of the embedded table to the
// provider that serves it.
var DefaultModelProviders = defaultModelProviders()

func defaultModelTiers() map[string]string {
	tiers := make(map[string]string)
	for _, m := range token_management.ModelDetails() {
		name := m.Tier
		if name == "" {
			name = TierLocal.Name
		}
		if tier, ok := TierByName(name); ok {
			tiers[token_management.NormalizeModel(m.Name)] = tier.Name
		}
	}
	return tiers
}

func defaultModelProviders() map[string]string {
	providers := make(map[string]string)
	for _, m := range token_management.ModelDetails() {
		providers[token_management.NormalizeModel(m.Name)] = strings.ToLower(m.Provider)
	}
	return providers
}
