package services

import (
	"context"
	"errors"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripmate/internal/models/db_models"
	"tripmate/internal/models/response_models"
	"tripmate/internal/planner"
	"tripmate/pkg/utils"
)

type fakeAI struct {
	brief     *utils.DestinationBrief
	err       error
	embedErr  error
	described []string
	embedded  []string
}

func (f *fakeAI) DescribeDestination(_ context.Context, name string) (*utils.DestinationBrief, error) {
	f.described = append(f.described, name)
	if f.err != nil {
		return nil, f.err
	}
	return f.brief, nil
}

func (f *fakeAI) GetEmbedding(_ context.Context, text string) (pgvector.Vector, error) {
	f.embedded = append(f.embedded, text)
	if f.embedErr != nil {
		return pgvector.Vector{}, f.embedErr
	}
	return pgvector.NewVector([]float32{1, 0, 0}), nil
}

func (f *fakeAI) Close() error { return nil }

type fakeEmbeddings struct {
	nearest []db_models.DestinationEmbedding
	err     error
	rows    []db_models.DestinationEmbedding
}

func (f *fakeEmbeddings) Nearest(context.Context, pgvector.Vector, float64, int) ([]db_models.DestinationEmbedding, error) {
	return f.nearest, f.err
}

func (f *fakeEmbeddings) Upsert(_ context.Context, row db_models.DestinationEmbedding) error {
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeEmbeddings) Count(context.Context) (int64, error) { return int64(len(f.rows)), nil }

func TestDestinationSearchCatalogue(t *testing.T) {
	ai := &fakeAI{}
	svc := NewDestinationService(planner.DefaultRules(), ai, &fakeEmbeddings{})

	info, err := svc.Search(context.Background(), "  italy ")
	require.NoError(t, err)
	assert.Equal(t, "Italy", info.Name)
	assert.Equal(t, "Europe", info.Region)
	assert.Equal(t, response_models.SourceCatalogue, info.Source)
	assert.Empty(t, ai.described, "catalogue hits never reach the AI")
}

func TestDestinationSearchBlank(t *testing.T) {
	svc := NewDestinationService(planner.DefaultRules(), nil, nil)
	_, err := svc.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestDestinationSearchGenericWithoutAI(t *testing.T) {
	svc := NewDestinationService(planner.DefaultRules(), nil, nil)

	info, err := svc.Search(context.Background(), "narnia")
	require.NoError(t, err)
	assert.Equal(t, &response_models.DestinationInfo{Name: "Narnia", Source: response_models.SourceGeneric}, info)
	assert.Empty(t, svc.Describe(context.Background(), "narnia"))
}

func TestDestinationSearchSimilarMatch(t *testing.T) {
	ai := &fakeAI{}
	emb := &fakeEmbeddings{nearest: []db_models.DestinationEmbedding{{Name: "Italy", Similarity: 0.93}}}
	svc := NewDestinationService(planner.DefaultRules(), ai, emb)

	info, err := svc.Search(context.Background(), "itally")
	require.NoError(t, err)
	assert.Equal(t, response_models.SourceSimilar, info.Source)
	assert.Equal(t, "Italy", info.MatchedName)
	assert.Equal(t, "Itally", info.Name)
	assert.Equal(t, "Italy", info.Country)
	assert.Empty(t, ai.described)
}

func TestDestinationSearchAIAndCache(t *testing.T) {
	ai := &fakeAI{brief: &utils.DestinationBrief{
		Name:        "Zanzibar",
		Country:     "Tanzania",
		Region:      "Africa",
		Description: "Spice island with white sand beaches.",
		BestTime:    "June to October",
	}}
	svc := NewDestinationService(planner.DefaultRules(), ai, &fakeEmbeddings{})
	ctx := context.Background()

	info, err := svc.Search(ctx, "Zanzibar")
	require.NoError(t, err)
	assert.Equal(t, response_models.SourceAI, info.Source)
	assert.Equal(t, "Tanzania", info.Country)

	blurb := svc.Describe(ctx, "zanzibar")
	assert.Equal(t, "Spice island with white sand beaches. Best time to visit: June to October.", blurb)
	assert.Equal(t, []string{"Zanzibar"}, ai.described, "second lookup is served from cache")
}

func TestDestinationSearchAIFailureDegrades(t *testing.T) {
	ai := &fakeAI{err: errors.New("quota exceeded"), embedErr: errors.New("quota exceeded")}
	svc := NewDestinationService(planner.DefaultRules(), ai, &fakeEmbeddings{})

	info, err := svc.Search(context.Background(), "atlantis")
	require.NoError(t, err)
	assert.Equal(t, response_models.SourceGeneric, info.Source)
	assert.Equal(t, "Atlantis", info.Name)
}

func TestDestinationIndexCatalogue(t *testing.T) {
	rules := planner.DefaultRules()
	ai := &fakeAI{}
	emb := &fakeEmbeddings{}
	svc := NewDestinationService(rules, ai, emb)

	n, err := svc.IndexCatalogue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(rules.Destinations), n)
	require.Len(t, emb.rows, n)
	assert.Equal(t, rules.Destinations[0].Name, emb.rows[0].Name)
	assert.Equal(t, rules.Destinations[0].Name+", "+rules.Destinations[0].Country, ai.embedded[0])

	n, err = NewDestinationService(rules, nil, nil).IndexCatalogue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
