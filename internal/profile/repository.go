// internal/profile/repository.go
package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	apperrors "food-recommender/internal/common/errors"
	"food-recommender/internal/common/logger"
	"food-recommender/internal/models"
)

const (
	DefaultCacheTTL = 10 * time.Minute
	cacheKeyPrefix  = "user:profile:"
)

// List columns hold comma separated tokens.
const (
	selectProfileSQL = `
		SELECT id, dietary_restrictions, allergies, food_habit,
		       cuisine_preferences, preferred_brands, location
		FROM user_profiles
		WHERE id = $1`

	updateProfileSQL = `
		UPDATE user_profiles
		SET dietary_restrictions = $2, allergies = $3, food_habit = $4,
		    cuisine_preferences = $5, preferred_brands = $6, location = $7,
		    updated_at = NOW()
		WHERE id = $1`
)

// Repository loads and updates user profiles in Postgres behind a Redis read-through cache.
// A nil Redis client disables caching.
type Repository struct {
	db     *sql.DB
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRepository(db *sql.DB, client *redis.Client, ttl time.Duration, log logger.Logger) *Repository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Repository{
		db:     db,
		redis:  client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "profile-repository"}),
	}
}

func CacheKey(userID string) string {
	return cacheKeyPrefix + userID
}

// Get returns the normalized profile for userID.
func (r *Repository) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewInvalidInputError("userId is required")
	}

	if cached, ok := r.readCache(ctx, userID); ok {
		return cached, nil
	}

	p, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.writeCache(ctx, p)
	return p, nil
}

// Update validates and applies the optional fields of upd, persists the result and
// drops the cached copy.
func (r *Repository) Update(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewInvalidInputError("userId is required")
	}
	if err := upd.Validate(); err != nil {
		return nil, apperrors.NewProfileValidationFailedError(err.Error())
	}

	current, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.IsEmpty() {
		return current, nil
	}

	updated := upd.Apply(*current)

	res, err := r.db.ExecContext(ctx, updateProfileSQL,
		updated.ID,
		strings.Join(updated.DietaryRestrictions, ","),
		strings.Join(updated.Allergies, ","),
		string(updated.FoodHabit),
		strings.Join(updated.CuisinePreferences, ","),
		strings.Join(updated.PreferredBrands, ","),
		updated.Location,
	)
	if err != nil {
		return nil, classifyDBError(ctx, "update_profile", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, apperrors.NewProfileNotFoundError(userID)
	}

	r.invalidate(ctx, userID)
	r.logger.Info("profile updated", map[string]interface{}{"userId": userID})
	return &updated, nil
}

func (r *Repository) load(ctx context.Context, userID string) (*models.UserProfile, error) {
	// Every column except id may be NULL; NULL reads as "no constraint".
	var (
		id                                                         string
		restrictions, allergies, habit, cuisines, brands, location sql.NullString
	)
	err := r.db.QueryRowContext(ctx, selectProfileSQL, userID).Scan(
		&id, &restrictions, &allergies, &habit, &cuisines, &brands, &location,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewProfileNotFoundError(userID)
	}
	if err != nil {
		return nil, classifyDBError(ctx, "select_profile", err)
	}

	p := models.UserProfile{
		ID:                  id,
		DietaryRestrictions: models.SplitTokens(restrictions.String),
		Allergies:           models.SplitTokens(allergies.String),
		FoodHabit:           models.ParseFoodHabit(habit.String),
		CuisinePreferences:  models.SplitTokens(cuisines.String),
		PreferredBrands:     models.SplitTokens(brands.String),
		Location:            location.String,
	}.Normalize()
	return &p, nil
}

func (r *Repository) readCache(ctx context.Context, userID string) (*models.UserProfile, bool) {
	if r.redis == nil {
		return nil, false
	}
	key := CacheKey(userID)
	data, err := r.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cacheErr := apperrors.NewCacheReadFailedError(key, err)
			r.logger.Warn("profile cache read failed", map[string]interface{}{
				"errorCode": string(cacheErr.Code),
				"error":     err.Error(),
			})
		}
		return nil, false
	}

	var p models.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		r.logger.Warn("discarding corrupt profile cache entry", map[string]interface{}{"key": key})
		return nil, false
	}
	return &p, true
}

func (r *Repository) writeCache(ctx context.Context, p *models.UserProfile) {
	if r.redis == nil {
		return
	}
	key := CacheKey(p.ID)
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, key, data, r.ttl).Err(); err != nil {
		cacheErr := apperrors.NewCacheWriteFailedError(key, err)
		r.logger.Warn("profile cache write failed", map[string]interface{}{
			"errorCode": string(cacheErr.Code),
			"error":     err.Error(),
		})
	}
}

func (r *Repository) invalidate(ctx context.Context, userID string) {
	if r.redis == nil {
		return
	}
	if err := r.redis.Del(ctx, CacheKey(userID)).Err(); err != nil {
		r.logger.Warn("profile cache invalidation failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
}

// classifyDBError maps driver errors onto the DATABASE_* codes.
func classifyDBError(ctx context.Context, operation string, err error) *apperrors.StandardError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewDatabaseTimeoutError(operation)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "08" {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	if errors.Is(err, sql.ErrConnDone) {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	return apperrors.NewDatabaseQueryFailedError(operation, err)
}
