package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tripmate/internal/models/db_models"
	"tripmate/internal/models/response_models"
	"tripmate/internal/planner"
	"tripmate/internal/repositories"
	"tripmate/pkg/logger"
	"tripmate/pkg/utils"
)

const (
	destinationCacheTTL = 24 * time.Hour
	// Below this cosine similarity a nearest neighbour is not the same place.
	minDestinationSimilarity = 0.85
)

type DestinationServiceInterface interface {
	Search(ctx context.Context, name string) (*response_models.DestinationInfo, error)
	Describe(ctx context.Context, name string) string
	IndexCatalogue(ctx context.Context) (int, error)
}

type DestinationService struct {
	rules      *planner.Rules
	ai         utils.AIClient
	embeddings repositories.DestinationEmbeddingRepository
	cache      *cache.Cache
	title      cases.Caser
}

// NewDestinationService wires the lookup chain. ai and embeddings may be nil;
// the matching lookup steps are then skipped.
func NewDestinationService(
	rules *planner.Rules,
	ai utils.AIClient,
	embeddings repositories.DestinationEmbeddingRepository,
) DestinationServiceInterface {
	return &DestinationService{
		rules:      rules,
		ai:         ai,
		embeddings: embeddings,
		cache:      cache.New(destinationCacheTTL, time.Hour),
		title:      cases.Title(language.English),
	}
}

// Search resolves a destination name: gazetteer, cache, nearest indexed
// destination, AI description, then a generic entry. Lookup failures are
// logged and skipped, so only blank input is an error.
func (s *DestinationService) Search(ctx context.Context, name string) (*response_models.DestinationInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, utils.ErrInvalidInput
	}

	if dest, ok := s.rules.FindDestination(name); ok {
		return catalogueInfo(dest, response_models.SourceCatalogue), nil
	}

	key := strings.ToLower(name)
	if cached, ok := s.cache.Get(key); ok {
		info := cached.(response_models.DestinationInfo)
		return &info, nil
	}

	info := s.lookup(ctx, name)
	s.cache.Set(key, *info, cache.DefaultExpiration)
	return info, nil
}

func (s *DestinationService) lookup(ctx context.Context, name string) *response_models.DestinationInfo {
	if s.ai == nil {
		return s.generic(name)
	}

	if s.embeddings != nil {
		if info := s.nearest(ctx, name); info != nil {
			return info
		}
	}

	brief, err := s.ai.DescribeDestination(ctx, name)
	if err != nil {
		logger.Log.Warn("destination lookup failed",
			zap.String("collaborator", "ai"),
			zap.String("destination", name),
			zap.Error(err))
		return s.generic(name)
	}
	return &response_models.DestinationInfo{
		Name:        brief.Name,
		Country:     brief.Country,
		Region:      brief.Region,
		Description: brief.Description,
		BestTime:    brief.BestTime,
		Highlights:  brief.Highlights,
		Source:      response_models.SourceAI,
	}
}

func (s *DestinationService) nearest(ctx context.Context, name string) *response_models.DestinationInfo {
	vec, err := s.ai.GetEmbedding(ctx, name)
	if err != nil {
		logger.Log.Warn("destination embedding failed", zap.String("destination", name), zap.Error(err))
		return nil
	}
	rows, err := s.embeddings.Nearest(ctx, vec, minDestinationSimilarity, 1)
	if err != nil {
		logger.Log.Warn("destination lookup failed",
			zap.String("collaborator", "pgvector"),
			zap.String("destination", name),
			zap.Error(err))
		return nil
	}
	if len(rows) == 0 {
		return nil
	}
	dest, ok := s.rules.FindDestination(rows[0].Name)
	if !ok {
		return nil
	}
	logger.Log.Debug("destination matched by similarity",
		zap.String("query", name),
		zap.String("match", dest.Name),
		zap.Float64("similarity", rows[0].Similarity))
	info := catalogueInfo(dest, response_models.SourceSimilar)
	info.MatchedName = dest.Name
	info.Name = s.title.String(name)
	return info
}

func (s *DestinationService) generic(name string) *response_models.DestinationInfo {
	return &response_models.DestinationInfo{
		Name:   s.title.String(name),
		Source: response_models.SourceGeneric,
	}
}

// Describe returns a one-line blurb for acknowledgments, or "" when nothing
// specific is known about the place.
func (s *DestinationService) Describe(ctx context.Context, name string) string {
	info, err := s.Search(ctx, name)
	if err != nil || info.Source == response_models.SourceGeneric {
		return ""
	}
	blurb := strings.TrimSpace(info.Description)
	if info.BestTime != "" {
		blurb = strings.TrimSpace(fmt.Sprintf("%s Best time to visit: %s.", blurb, strings.TrimSuffix(info.BestTime, ".")))
	}
	return blurb
}

// IndexCatalogue embeds every gazetteer destination so misspelt names can be
// matched later. It is a no-op without an AI client and a database.
func (s *DestinationService) IndexCatalogue(ctx context.Context) (int, error) {
	if s.ai == nil || s.embeddings == nil {
		return 0, nil
	}
	indexed := 0
	for _, dest := range s.rules.Destinations {
		vec, err := s.ai.GetEmbedding(ctx, dest.Name+", "+dest.Country)
		if err != nil {
			return indexed, fmt.Errorf("embed %s: %w", dest.Name, err)
		}
		row := db_models.DestinationEmbedding{
			Name:        dest.Name,
			Country:     dest.Country,
			Region:      dest.Region,
			Description: dest.Description,
			Embedding:   vec,
		}
		if err := s.embeddings.Upsert(ctx, row); err != nil {
			return indexed, err
		}
		indexed++
	}
	return indexed, nil
}

func catalogueInfo(dest *planner.Destination, source response_models.DestinationSource) *response_models.DestinationInfo {
	return &response_models.DestinationInfo{
		Name:        dest.Name,
		Country:     dest.Country,
		Region:      dest.Region,
		Description: dest.Description,
		BestTime:    dest.BestTime,
		Source:      source,
	}
}
