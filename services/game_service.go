package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"

	"guessTheDjAPI/internal/types/game"
	"guessTheDjAPI/repository"
)

// Domain rule violations. All of them are user-facing and recoverable; the
// handler layer turns them into private replies.
var (
	ErrAlreadyChosen  = errors.New("a DJ has already been chosen today")
	ErrNoSuggestions  = errors.New("no song suggestions available")
	ErrNotChosenYet   = errors.New("no DJ has been chosen yet")
	ErrAlreadyGuessed = errors.New("you already guessed today")
	ErrInvalidGuess   = errors.New("guess must mention exactly one user")
)

// AlreadyRevealedError rejects a second reveal and names who got there first.
type AlreadyRevealedError struct {
	By string
}

func (e *AlreadyRevealedError) Error() string {
	return fmt.Sprintf("the DJ was already revealed by %s", e.By)
}

// Visibility tells the transport layer whether a reply is for everyone or for
// the invoking user only.
type Visibility string

const (
	VisibilityBroadcast Visibility = "broadcast"
	VisibilityPrivate   Visibility = "private"
)

type SuggestResult struct {
	Suggestion game.SongSuggestion
	Visibility Visibility
}

// ChooseResult deliberately carries no DJ identity: the selection stays
// secret until the reveal.
type ChooseResult struct {
	Day        string
	Visibility Visibility
}

type PlayResult struct {
	SongURL    string
	Visibility Visibility
}

type GuessResult struct {
	Guess      game.Guess
	Visibility Visibility
}

type RevealResult struct {
	DJName     string
	SongURL    string
	Guesses    []game.GuessOutcome
	Visibility Visibility
}

// mentionPattern matches an escaped user-mention token, e.g. <@U123ABC|alice>.
var mentionPattern = regexp.MustCompile(`<@([^|>]+)\|([^>]+)>`)

// GameService is the daily game state machine. Per day the transitions are
// strictly ordered NoDJ -> DJChosen -> (Played|Guessed)* -> Revealed, where
// DailySong existence encodes DJChosen and RevealRecord existence encodes
// Revealed.
//
// The backing store has no transactions and no compare-and-swap, so the
// create-once edges (ChooseDJ, RevealDJ, first guess per user) are guarded by
// an existence check placed immediately before the write. That keeps the
// check-then-act window as short as possible but does NOT close it: two
// concurrent calls can both pass the check and the later write silently wins.
// The guarantee is best-effort single-writer, not linearizable.
type GameService struct {
	repo *repository.GameRepository
}

func NewGameService(repo *repository.GameRepository) *GameService {
	return &GameService{repo: repo}
}

// SuggestSong records a song suggestion. Always legal, any day, any number
// of times per user.
func (s *GameService) SuggestSong(ctx context.Context, userID, userName, songURL string) (*SuggestResult, error) {
	suggestion, err := s.repo.AddSuggestion(ctx, userID, userName, songURL)
	if err != nil {
		return nil, err
	}
	return &SuggestResult{Suggestion: suggestion, Visibility: VisibilityPrivate}, nil
}

// ChooseDJ picks the day's DJ: one uniform draw over users that have at least
// one pending suggestion, then one uniform draw over that user's suggestions.
// The two-stage draw keeps user-level fairness independent of how many songs
// each user has queued.
//
// If storing the selection succeeds but deleting the consumed suggestion
// fails, the error propagates and the suggestion stays listed even though it
// was already used. No cleanup is attempted.
func (s *GameService) ChooseDJ(ctx context.Context, day string) (*ChooseResult, error) {
	chosen, err := s.repo.DailySongExists(ctx, day)
	if err != nil {
		return nil, err
	}
	if chosen {
		return nil, ErrAlreadyChosen
	}

	suggesters, err := s.repo.ListSuggesters(ctx)
	if err != nil {
		return nil, err
	}
	if len(suggesters) == 0 {
		return nil, ErrNoSuggestions
	}

	dj := suggesters[rand.Intn(len(suggesters))]
	suggestions, err := s.repo.ListSuggestions(ctx, dj)
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		// Consumed between the two listings. Same answer as an empty board.
		return nil, ErrNoSuggestions
	}
	suggestion := suggestions[rand.Intn(len(suggestions))]

	// Re-check right before the write to keep the race window minimal.
	chosen, err = s.repo.DailySongExists(ctx, day)
	if err != nil {
		return nil, err
	}
	if chosen {
		return nil, ErrAlreadyChosen
	}

	song := game.DailySong{
		DJUserID: suggestion.SubmitterID,
		DJName:   suggestion.SubmitterName,
		SongURL:  suggestion.SongURL,
	}
	if err := s.repo.SetDailySong(ctx, day, song); err != nil {
		return nil, err
	}
	if err := s.repo.RemoveSuggestion(ctx, suggestion.Key); err != nil {
		return nil, err
	}

	return &ChooseResult{Day: day, Visibility: VisibilityBroadcast}, nil
}

// PlaySong returns the day's song URL. Read-only and repeatable.
func (s *GameService) PlaySong(ctx context.Context, day string) (*PlayResult, error) {
	chosen, err := s.repo.DailySongExists(ctx, day)
	if err != nil {
		return nil, err
	}
	if !chosen {
		return nil, ErrNotChosenYet
	}

	song, err := s.repo.GetDailySong(ctx, day)
	if err != nil {
		return nil, err
	}
	return &PlayResult{SongURL: song.SongURL, Visibility: VisibilityBroadcast}, nil
}

// GuessDJ records one user's guess at the DJ's identity. The raw text must
// contain a user-mention token; only the first one counts. Correctness is
// computed at reveal time, never here.
func (s *GameService) GuessDJ(ctx context.Context, day, guesserID, guesserName, rawText string) (*GuessResult, error) {
	chosen, err := s.repo.DailySongExists(ctx, day)
	if err != nil {
		return nil, err
	}
	if !chosen {
		return nil, ErrNotChosenYet
	}

	guessed, err := s.repo.GuessExists(ctx, day, guesserID)
	if err != nil {
		return nil, err
	}
	if guessed {
		return nil, ErrAlreadyGuessed
	}

	match := mentionPattern.FindStringSubmatch(rawText)
	if match == nil {
		return nil, ErrInvalidGuess
	}

	guess := game.Guess{
		GuesserID:       guesserID,
		GuesserName:     guesserName,
		GuessedUserID:   match[1],
		GuessedUserName: match[2],
	}
	if err := s.repo.AddGuess(ctx, day, guess); err != nil {
		return nil, err
	}
	return &GuessResult{Guess: guess, Visibility: VisibilityPrivate}, nil
}

// RevealDJ discloses the DJ and scores every guess recorded for the day.
// One-shot: the reveal record doubles as the lock, so a second call is
// rejected with the name of whoever revealed first.
func (s *GameService) RevealDJ(ctx context.Context, day, revealerID, revealerName string) (*RevealResult, error) {
	chosen, err := s.repo.DailySongExists(ctx, day)
	if err != nil {
		return nil, err
	}
	if !chosen {
		return nil, ErrNotChosenYet
	}

	revealed, err := s.repo.RevealExists(ctx, day)
	if err != nil {
		return nil, err
	}
	if revealed {
		record, err := s.repo.GetReveal(ctx, day)
		if err != nil {
			return nil, err
		}
		return nil, &AlreadyRevealedError{By: record.RevealerName}
	}

	record := game.RevealRecord{RevealerID: revealerID, RevealerName: revealerName}
	if err := s.repo.SetReveal(ctx, day, record); err != nil {
		return nil, err
	}

	song, err := s.repo.GetDailySong(ctx, day)
	if err != nil {
		return nil, err
	}
	guesses, err := s.repo.ListGuesses(ctx, day)
	if err != nil {
		return nil, err
	}

	outcomes := make([]game.GuessOutcome, 0, len(guesses))
	for _, g := range guesses {
		outcomes = append(outcomes, game.GuessOutcome{
			GuesserName:     g.GuesserName,
			GuessedUserName: g.GuessedUserName,
			Correct:         g.GuessedUserID == song.DJUserID,
		})
	}

	return &RevealResult{
		DJName:     song.DJName,
		SongURL:    song.SongURL,
		Guesses:    outcomes,
		Visibility: VisibilityBroadcast,
	}, nil
}
