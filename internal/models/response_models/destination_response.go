package response_models

type DestinationSource string

const (
	SourceCatalogue DestinationSource = "catalogue"
	SourceSimilar   DestinationSource = "similar"
	SourceAI        DestinationSource = "ai"
	SourceGeneric   DestinationSource = "generic"
)

type DestinationInfo struct {
	Name        string            `json:"name"`
	Country     string            `json:"country,omitempty"`
	Region      string            `json:"region,omitempty"`
	Description string            `json:"description,omitempty"`
	BestTime    string            `json:"bestTime,omitempty"`
	Highlights  []string          `json:"highlights,omitempty"`
	MatchedName string            `json:"matchedName,omitempty"`
	Source      DestinationSource `json:"source"`
}

type DestinationSearchResponse struct {
	Success         bool            `json:"success"`
	DestinationInfo DestinationInfo `json:"destinationInfo"`
}
