package token_management

import (
	"encoding/json"
	"log"

	"github.com/meysamhadeli/codaiscan/embed_data"
)

// ModelDetail is one entry of the embedded model table.
type ModelDetail struct {
	Name            string `json:"name"`
	Provider        string `json:"provider"`
	InputTokenLimit int    `json:"input_token_limit"`
	Tier            string `json:"tier,omitempty"`
}

type modelDetails struct {
	Models []ModelDetail `json:"models"`
}

// ModelDetails returns the embedded model table.
func ModelDetails() []ModelDetail {
	var details modelDetails
	if err := json.Unmarshal(embed_data.ModelDetails, &details); err != nil {
		log.Printf("Error unmarshaling model details: %v", err)
		return nil
	}
	return details.Models
}

func defaultInputTokenLimits() map[string]int {
	limits := make(map[string]int)
	for _, m := range ModelDetails() {
		if m.InputTokenLimit > 0 {
			limits[NormalizeModel(m.Name)] = m.InputTokenLimit
		}
	}
	return limits
}
