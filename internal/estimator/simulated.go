package estimator

import "movecrm_backend/internal/leads/domain"

// Simulated is the estimate used when no vision model is configured or the
// model could not be reached.
func Simulated() domain.Estimate {
	return domain.Estimate{
		Items: []domain.Item{
			{Name: "Simulated Sofa", Quantity: 1, Category: domain.CategoryFurniture, Source: domain.SourceAI},
			{Name: "Simulated TV", Quantity: 1, Category: domain.CategoryElectronics, Fragile: true, Source: domain.SourceAI},
		},
		Price:      1200,
		Volume:     "450 cu ft",
		Confidence: 0.85,
	}
}
