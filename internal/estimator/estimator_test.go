package estimator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"movecrm_backend/internal/leads/domain"
	"movecrm_backend/internal/leads/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type scriptedModel struct {
	replies []string
	errs    []error
	calls   int
}

func (m *scriptedModel) GenerateContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(m.replies[i], genai.RoleModel)}},
	}, nil
}

func photos(n int) []ports.Photo {
	out := make([]ports.Photo, n)
	for i := range out {
		out[i] = ports.Photo{FileName: "room.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}}
	}
	return out
}

func TestEstimateConsolidatesAndPrices(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"```json\n[{\"name\":\"Sofa\",\"quantity\":1,\"category\":\"furniture\",\"fragile\":false},{\"name\":\"Fridge\",\"quantity\":1,\"category\":\"appliances\"}]\n```",
		`[{"name":" sofa ","quantity":2,"category":"furniture"},{"name":"Vase","quantity":1,"category":"fragile","fragile":true},{"name":"Rug","quantity":0,"category":"textiles"}]`,
	}}
	e := newVision(model, "", nil, nil)

	est, err := e.Estimate(context.Background(), photos(2))
	require.NoError(t, err)
	assert.Equal(t, 2, model.calls)

	require.Len(t, est.Items, 4)
	assert.Equal(t, "Sofa", est.Items[0].Name)
	assert.Equal(t, 3, est.Items[0].Quantity)
	assert.Equal(t, domain.CategoryElectronics, est.Items[1].Category)
	assert.Equal(t, domain.CategoryFragile, est.Items[2].Category)
	assert.True(t, est.Items[2].Fragile)
	assert.Equal(t, domain.CategoryMisc, est.Items[3].Category)
	assert.Equal(t, 1, est.Items[3].Quantity)
	for _, it := range est.Items {
		assert.Equal(t, domain.SourceAI, it.Source)
	}

	// 500 + 3*150 + 250 + 100 + 50
	assert.Equal(t, 1350.0, est.Price)
	// 3*40 + 30 + 10 + 10
	assert.Equal(t, "170 cu ft", est.Volume)
	assert.Equal(t, 0.94, est.Confidence)
}

func TestEstimateSkipsFailedPhoto(t *testing.T) {
	model := &scriptedModel{
		replies: []string{"", "not json", `[{"name":"Desk","quantity":1,"category":"furniture"}]`},
		errs:    []error{errors.New("quota"), nil, nil},
	}
	e := newVision(model, "", nil, nil)

	est, err := e.Estimate(context.Background(), photos(3))
	require.NoError(t, err)
	require.Len(t, est.Items, 1)
	assert.Equal(t, 650.0, est.Price)
}

func TestEstimateAllPhotosFailed(t *testing.T) {
	model := &scriptedModel{errs: []error{errors.New("down")}}
	e := newVision(model, "", nil, nil)

	_, err := e.Estimate(context.Background(), photos(1))
	assert.ErrorIs(t, err, ErrNoDetections)

	_, err = e.Estimate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoDetections)
}

func TestEstimateStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newVision(&scriptedModel{}, "", nil, nil).Estimate(ctx, photos(2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadPricing(t *testing.T) {
	def, err := LoadPricing("")
	require.NoError(t, err)
	assert.Equal(t, 500.0, def.BasePrice)
	assert.Equal(t, Rate{UnitPrice: 250, UnitVolume: 30}, def.RateFor("Appliances"))
	assert.Equal(t, Rate{UnitPrice: 50, UnitVolume: 10}, def.RateFor("books"))

	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("basePrice: 100\ncategories:\n  Furniture: {unitPrice: 10, unitVolume: 1}\n"), 0o600))
	custom, err := LoadPricing(path)
	require.NoError(t, err)
	assert.Equal(t, 100.0, custom.BasePrice)
	assert.Equal(t, 10.0, custom.RateFor("furniture").UnitPrice)

	require.NoError(t, os.WriteFile(path, []byte("basePrice: -1\n"), 0o600))
	_, err = LoadPricing(path)
	assert.Error(t, err)

	_, err = LoadPricing(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSimulated(t *testing.T) {
	est := Simulated()
	require.Len(t, est.Items, 2)
	assert.Equal(t, "Simulated TV", est.Items[1].Name)
	assert.True(t, est.Items[1].Fragile)
	assert.Equal(t, 1200.0, est.Price)
	assert.Equal(t, "450 cu ft", est.Volume)
	assert.Equal(t, 0.85, est.Confidence)
}
