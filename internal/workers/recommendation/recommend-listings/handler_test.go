// internal/workers/recommendation/recommend-listings/handler_test.go
package recommendlistings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "food-recommender/internal/common/errors"
	"food-recommender/internal/common/logger"
	"food-recommender/internal/models"
	"food-recommender/internal/pipeline"
	"food-recommender/internal/retrieval"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

type stubProfiles struct {
	profiles map[string]models.UserProfile
	calls    int
}

func (s *stubProfiles) Get(_ context.Context, userID string) (*models.UserProfile, error) {
	s.calls++
	p, ok := s.profiles[userID]
	if !ok {
		return nil, apperrors.NewProfileNotFoundError(userID)
	}
	return &p, nil
}

func catalogue() []models.Listing {
	return []models.Listing{
		{Name: "Chicken Biryani", SourceLabel: "Behrouz", Price: 349, Rating: 4.5, ReviewCount: 5400, Cuisine: "indian"},
		{Name: "Paneer Biryani", SourceLabel: "Biryani Blues", Price: 280, Rating: 4.3, ReviewCount: 1200, Cuisine: "indian"},
		{Name: "Margherita Pizza", SourceLabel: "La Pino'z", Price: 199, Rating: 4.1, ReviewCount: 860, Cuisine: "italian"},
	}
}

func createTestHandler(t *testing.T, profiles ProfileStore) *Handler {
	t.Helper()
	log := createTestLogger(t)

	reg, err := retrieval.NewRegistry(retrieval.Platform{
		Name:     "swiggy",
		Provider: retrieval.NewFixtureProvider("swiggy", catalogue(), 10),
	})
	require.NoError(t, err)

	orch, err := pipeline.New(pipeline.Dependencies{Registry: reg, Logger: log}, pipeline.Options{})
	require.NoError(t, err)

	return NewHandler(createTestConfig(), orch, profiles, log)
}

func names(ls []models.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Name
	}
	return out
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	profiles := &stubProfiles{profiles: map[string]models.UserProfile{
		"veg-user": {ID: "veg-user", FoodHabit: models.FoodHabitVegetarian},
	}}

	tests := []struct {
		name         string
		input        *Input
		wantNames    []string
		wantIntent   models.IntentType
		wantCuisine  string
		profileCalls int
	}{
		{
			name:        "inline profile",
			input:       &Input{Query: "biryani", Profile: &models.UserProfile{}},
			wantNames:   []string{"Chicken Biryani", "Paneer Biryani"},
			wantIntent:  models.IntentGeneral,
			wantCuisine: "indian",
		},
		{
			name:         "profile loaded by user id",
			input:        &Input{Query: "order biryani", UserID: "veg-user"},
			wantNames:    []string{"Paneer Biryani"},
			wantIntent:   models.IntentBuyReadyMade,
			wantCuisine:  "indian",
			profileCalls: 1,
		},
		{
			name:        "inline profile wins over user id",
			input:       &Input{Query: "pizza", UserID: "veg-user", Profile: &models.UserProfile{}},
			wantNames:   []string{"Margherita Pizza"},
			wantIntent:  models.IntentGeneral,
			wantCuisine: "italian",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles.calls = 0
			h := createTestHandler(t, profiles)

			out, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.wantNames, names(out.Results))
			assert.Equal(t, len(tt.wantNames), out.Count)
			assert.Equal(t, tt.wantIntent, out.Intent.Type)
			assert.Equal(t, tt.wantCuisine, out.Intent.Cuisine)
			assert.NotEmpty(t, out.RequestID)
			require.Len(t, out.Platforms, 1)
			assert.Equal(t, "swiggy", out.Platforms[0].Platform)
			assert.Equal(t, tt.profileCalls, profiles.calls)
		})
	}
}

func TestHandler_Execute_Errors(t *testing.T) {
	profiles := &stubProfiles{profiles: map[string]models.UserProfile{}}
	h := createTestHandler(t, profiles)

	tests := []struct {
		name     string
		input    *Input
		wantCode apperrors.ErrorCode
	}{
		{name: "nil input", input: nil, wantCode: apperrors.ErrCodeInvalidInput},
		{name: "empty query", input: &Input{Query: "  ", Profile: &models.UserProfile{}}, wantCode: apperrors.ErrCodeInvalidInput},
		{name: "unknown user", input: &Input{Query: "pizza", UserID: "ghost"}, wantCode: apperrors.ErrCodeProfileNotFound},
		{name: "no profile at all", input: &Input{Query: "pizza"}, wantCode: apperrors.ErrCodeProfileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
		})
	}
}

func TestHandler_Execute_NoProfileStore(t *testing.T) {
	h := createTestHandler(t, nil)
	_, err := h.Execute(context.Background(), &Input{Query: "pizza", UserID: "u1"})
	assert.True(t, errors.Is(err, apperrors.ErrProfileNotFound))
}

func TestHandler_Execute_EnrichQuery(t *testing.T) {
	var seen string
	provider := retrieval.ProviderFunc(func(_ context.Context, query, _ string) ([]models.Listing, error) {
		seen = query
		return nil, nil
	})
	reg, err := retrieval.NewRegistry(retrieval.Platform{Name: "swiggy", Provider: provider})
	require.NoError(t, err)
	orch, err := pipeline.New(pipeline.Dependencies{Registry: reg}, pipeline.Options{})
	require.NoError(t, err)

	cfg := createTestConfig()
	cfg.EnrichQuery = true
	h := NewHandler(cfg, orch, nil, createTestLogger(t))

	profile := &models.UserProfile{Allergies: []string{"peanut"}}
	_, err = h.Execute(context.Background(), &Input{Query: "noodles", Profile: profile})
	require.NoError(t, err)
	assert.Equal(t, "noodles peanut-free", seen)

	off := false
	_, err = h.Execute(context.Background(), &Input{Query: "noodles", Profile: profile, EnrichQuery: &off})
	require.NoError(t, err)
	assert.Equal(t, "noodles", seen)
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, nil)

	tests := []struct {
		name      string
		variables string
		wantErr   apperrors.ErrorCode
		check     func(t *testing.T, in *Input)
	}{
		{
			name:      "user id",
			variables: `{"query":"biryani","userId":"u1","processStarter":"web"}`,
			check: func(t *testing.T, in *Input) {
				assert.Equal(t, "biryani", in.Query)
				assert.Equal(t, "u1", in.UserID)
				assert.Nil(t, in.Profile)
				assert.Nil(t, in.EnrichQuery)
			},
		},
		{
			name:      "inline profile",
			variables: `{"query":"pasta","enrichQuery":true,"profile":{"allergies":["gluten"],"foodHabit":"vegan"}}`,
			check: func(t *testing.T, in *Input) {
				require.NotNil(t, in.Profile)
				assert.Equal(t, []string{"gluten"}, in.Profile.Allergies)
				assert.Equal(t, models.FoodHabitVegan, in.Profile.FoodHabit)
				require.NotNil(t, in.EnrichQuery)
				assert.True(t, *in.EnrichQuery)
			},
		},
		{name: "missing query", variables: `{"userId":"u1"}`, wantErr: apperrors.ErrCodeInputValidationFailed},
		{name: "missing profile and user", variables: `{"query":"pasta"}`, wantErr: apperrors.ErrCodeInputValidationFailed},
		{name: "wrong type", variables: `{"query":"pasta","userId":7}`, wantErr: apperrors.ErrCodeInputValidationFailed},
		{name: "malformed", variables: `{"query":`, wantErr: apperrors.ErrCodeInputValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Variables: tt.variables}}
			in, err := h.parseInput(job)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			tt.check(t, in)
		})
	}
}
