package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"guessTheDjAPI/internal/types/game"
	"guessTheDjAPI/storage"
)

// Key layout. The key scheme IS the storage schema: presence or absence of a
// key encodes game state, and changing any of these prefixes invalidates all
// stored history.
//
//	suggestion/<userID>/<unixnano>-<uuid>   -> game.SongSuggestion
//	dailysong/<day>                         -> game.DailySong
//	reveal/<day>                            -> game.RevealRecord
//	guess/<day>/<userID>                    -> game.Guess
const (
	suggestionPrefix = "suggestion/"
	dailySongPrefix  = "dailysong/"
	revealPrefix     = "reveal/"
	guessPrefix      = "guess/"
)

// GameRepository maps the game entities onto key-value records. Every
// mutating call issues exactly one underlying store write or delete; there is
// no batching and no rollback.
type GameRepository struct {
	store storage.KeyValueStore
}

func NewGameRepository(store storage.KeyValueStore) *GameRepository {
	return &GameRepository{store: store}
}

// ListSuggesters returns the IDs of users with at least one pending
// suggestion, de-duplicated and in listing order.
func (r *GameRepository) ListSuggesters(ctx context.Context) ([]string, error) {
	keys, err := r.store.ListKeys(ctx, suggestionPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestion keys: %w", err)
	}

	seen := make(map[string]bool)
	var suggesters []string
	for _, key := range keys {
		userID := suggestionOwner(key)
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true
		suggesters = append(suggesters, userID)
	}
	return suggesters, nil
}

// ListSuggestions returns all pending suggestions for one user, with their
// storage keys populated.
func (r *GameRepository) ListSuggestions(ctx context.Context, userID string) ([]game.SongSuggestion, error) {
	keys, err := r.store.ListKeys(ctx, suggestionPrefix+userID+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions for %s: %w", userID, err)
	}

	var suggestions []game.SongSuggestion
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read suggestion %s: %w", key, err)
		}
		var s game.SongSuggestion
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to decode suggestion %s: %w", key, err)
		}
		s.Key = key
		suggestions = append(suggestions, s)
	}
	return suggestions, nil
}

// AddSuggestion stores a new suggestion under a fresh key. The key carries a
// timestamp plus a random token so concurrent suggestions from the same user
// never collide.
func (r *GameRepository) AddSuggestion(ctx context.Context, userID, userName, songURL string) (game.SongSuggestion, error) {
	now := time.Now().UTC()
	suggestion := game.SongSuggestion{
		SubmitterID:   userID,
		SubmitterName: userName,
		SongURL:       songURL,
		SubmittedAt:   now,
		Key:           fmt.Sprintf("%s%s/%d-%s", suggestionPrefix, userID, now.UnixNano(), uuid.New().String()),
	}

	data, err := json.Marshal(suggestion)
	if err != nil {
		return game.SongSuggestion{}, fmt.Errorf("failed to encode suggestion: %w", err)
	}
	if err := r.store.Put(ctx, suggestion.Key, data); err != nil {
		return game.SongSuggestion{}, fmt.Errorf("failed to store suggestion: %w", err)
	}
	return suggestion, nil
}

// RemoveSuggestion deletes exactly one suggestion record by its storage key.
func (r *GameRepository) RemoveSuggestion(ctx context.Context, key string) error {
	if !strings.HasPrefix(key, suggestionPrefix) {
		return fmt.Errorf("not a suggestion key: %s", key)
	}
	if err := r.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to remove suggestion %s: %w", key, err)
	}
	return nil
}

func (r *GameRepository) DailySongExists(ctx context.Context, day string) (bool, error) {
	return r.store.Exists(ctx, dailySongPrefix+day)
}

func (r *GameRepository) GetDailySong(ctx context.Context, day string) (game.DailySong, error) {
	var song game.DailySong
	if err := r.getJSON(ctx, dailySongPrefix+day, &song); err != nil {
		return game.DailySong{}, err
	}
	return song, nil
}

// SetDailySong writes the day's DJ selection. Create-once is enforced by the
// caller's existence check; the store itself is last-write-wins.
func (r *GameRepository) SetDailySong(ctx context.Context, day string, song game.DailySong) error {
	return r.putJSON(ctx, dailySongPrefix+day, song)
}

func (r *GameRepository) RevealExists(ctx context.Context, day string) (bool, error) {
	return r.store.Exists(ctx, revealPrefix+day)
}

func (r *GameRepository) GetReveal(ctx context.Context, day string) (game.RevealRecord, error) {
	var record game.RevealRecord
	if err := r.getJSON(ctx, revealPrefix+day, &record); err != nil {
		return game.RevealRecord{}, err
	}
	return record, nil
}

// SetReveal writes the day's reveal record, same create-once caveat as
// SetDailySong.
func (r *GameRepository) SetReveal(ctx context.Context, day string, record game.RevealRecord) error {
	return r.putJSON(ctx, revealPrefix+day, record)
}

func (r *GameRepository) GuessExists(ctx context.Context, day, userID string) (bool, error) {
	return r.store.Exists(ctx, guessKey(day, userID))
}

func (r *GameRepository) AddGuess(ctx context.Context, day string, guess game.Guess) error {
	return r.putJSON(ctx, guessKey(day, guess.GuesserID), guess)
}

// ListGuesses enumerates all guesses recorded for a day.
func (r *GameRepository) ListGuesses(ctx context.Context, day string) ([]game.Guess, error) {
	keys, err := r.store.ListKeys(ctx, guessPrefix+day+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to list guess keys for %s: %w", day, err)
	}

	var guesses []game.Guess
	for _, key := range keys {
		var g game.Guess
		if err := r.getJSON(ctx, key, &g); err != nil {
			return nil, err
		}
		guesses = append(guesses, g)
	}
	return guesses, nil
}

func (r *GameRepository) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", key, err)
	}
	if err := r.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to store record %s: %w", key, err)
	}
	return nil
}

func (r *GameRepository) getJSON(ctx context.Context, key string, v any) error {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read record %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode record %s: %w", key, err)
	}
	return nil
}

func guessKey(day, userID string) string {
	return guessPrefix + day + "/" + userID
}

// suggestionOwner extracts the user segment out of a suggestion key, or ""
// for a key that does not match the schema.
func suggestionOwner(key string) string {
	rest := strings.TrimPrefix(key, suggestionPrefix)
	idx := strings.IndexByte(rest, '/')
	if idx <= 0 {
		return ""
	}
	return rest[:idx]
}
