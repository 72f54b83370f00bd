// Package estimator turns intake photos into an inventory and a price estimate
// using a Gemini vision model.
package estimator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"movecrm_backend/internal/leads/domain"
	"movecrm_backend/internal/leads/ports"
	"movecrm_backend/platform/config"
	"movecrm_backend/platform/logger"

	"google.golang.org/genai"
)

const (
	defaultModel     = "gemini-2.5-flash"
	visionConfidence = 0.94
	maxOutputTokens  = 1024
)

const inventoryPrompt = `Identify all household items, furniture and appliances in this image for a house move estimate.
Return ONLY a valid JSON array of objects.
Each object MUST have: "name", "quantity", "category" (furniture/electronics/appliances/fragile/others), and "fragile" (boolean).
Example: [{"name": "Sofa", "quantity": 1, "category": "furniture", "fragile": false}]`

// ErrNoDetections is returned when no photo produced a usable answer.
var ErrNoDetections = errors.New("vision model returned no usable detections")

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// VisionEstimator implements ports.Estimator on top of the Gemini API.
type VisionEstimator struct {
	models  contentGenerator
	model   string
	pricing *PricingTable
	log     *logger.Logger
}

var _ ports.Estimator = (*VisionEstimator)(nil)

// NewVision creates the Gemini client. Callers should check cfg.IsAIEnabled first.
func NewVision(ctx context.Context, cfg config.EstimatorConfig, pricing *PricingTable, log *logger.Logger) (*VisionEstimator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newVision(client.Models, cfg.GetGeminiModel(), pricing, log), nil
}

func newVision(models contentGenerator, model string, pricing *PricingTable, log *logger.Logger) *VisionEstimator {
	if model == "" {
		model = defaultModel
	}
	if pricing == nil {
		pricing = DefaultPricing()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &VisionEstimator{models: models, model: model, pricing: pricing, log: log}
}

// detection is one entry of the model's JSON answer.
type detection struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Category string `json:"category"`
	Fragile  bool   `json:"fragile"`
}

// Estimate asks the model about each photo in turn. A photo that fails is
// skipped; the call fails only when every photo did.
func (e *VisionEstimator) Estimate(ctx context.Context, photos []ports.Photo) (domain.Estimate, error) {
	if len(photos) == 0 {
		return domain.Estimate{}, ErrNoDetections
	}

	var (
		all       []detection
		succeeded int
	)
	for _, p := range photos {
		if err := ctx.Err(); err != nil {
			return domain.Estimate{}, err
		}
		found, err := e.analyzePhoto(ctx, p)
		if err != nil {
			e.log.Warn("photo analysis failed", "file", p.FileName, "error", err)
			continue
		}
		succeeded++
		all = append(all, found...)
	}
	if succeeded == 0 {
		return domain.Estimate{}, ErrNoDetections
	}

	return e.price(consolidate(all)), nil
}

func (e *VisionEstimator) analyzePhoto(ctx context.Context, p ports.Photo) ([]detection, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			genai.NewPartFromText(inventoryPrompt),
			genai.NewPartFromBytes(p.Data, p.ContentType),
		},
	}}

	resp, err := e.models.GenerateContent(ctx, e.model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens:  maxOutputTokens,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("empty response")
	}
	return parseDetections(resp.Text())
}

func parseDetections(text string) ([]detection, error) {
	text = stripCodeFence(text)
	var out []detection
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("decode detections: %w", err)
	}
	valid := out[:0]
	for _, d := range out {
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			continue
		}
		if d.Quantity < 1 {
			d.Quantity = 1
		}
		valid = append(valid, d)
	}
	return valid, nil
}

func stripCodeFence(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// consolidate merges detections of the same item seen on several photos.
// The first spelling and category win.
func consolidate(in []detection) []detection {
	index := make(map[string]int, len(in))
	out := make([]detection, 0, len(in))
	for _, d := range in {
		key := strings.ToLower(d.Name)
		if i, ok := index[key]; ok {
			out[i].Quantity += d.Quantity
			continue
		}
		index[key] = len(out)
		out = append(out, d)
	}
	return out
}

func (e *VisionEstimator) price(dets []detection) domain.Estimate {
	est := domain.Estimate{
		Items:      make([]domain.Item, 0, len(dets)),
		Price:      e.pricing.BasePrice,
		Confidence: visionConfidence,
	}
	var volume float64
	for _, d := range dets {
		rate := e.pricing.RateFor(d.Category)
		est.Price += rate.UnitPrice * float64(d.Quantity)
		volume += rate.UnitVolume * float64(d.Quantity)
		est.Items = append(est.Items, domain.Item{
			Name:      d.Name,
			Quantity:  d.Quantity,
			UnitPrice: rate.UnitPrice,
			Category:  NormalizeCategory(d.Category),
			Fragile:   d.Fragile,
			Source:    domain.SourceAI,
		})
	}
	est.Volume = strconv.FormatFloat(volume, 'f', -1, 64) + " cu ft"
	return est
}

// NormalizeCategory maps a model category onto the lead item categories.
// Appliances are stored as electronics.
func NormalizeCategory(category string) domain.ItemCategory {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "furniture":
		return domain.CategoryFurniture
	case "electronics", "appliances":
		return domain.CategoryElectronics
	case "fragile":
		return domain.CategoryFragile
	default:
		return domain.CategoryMisc
	}
}
