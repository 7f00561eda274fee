package game

import "time"

// SongSuggestion is a song submitted by a user, waiting to be picked by a DJ
// selection. Suggestions survive across days until consumed.
type SongSuggestion struct {
	SubmitterID   string    `json:"submitter_id"`
	SubmitterName string    `json:"submitter_name"`
	SongURL       string    `json:"song_url"`
	SubmittedAt   time.Time `json:"submitted_at"`

	// Key is the storage key the suggestion lives under. Populated when
	// listing, never persisted inside the record itself.
	Key string `json:"-"`
}

// DailySong is the one-per-day DJ selection. Its existence is the sole
// authority for "a DJ has been chosen today".
type DailySong struct {
	DJUserID string `json:"dj_user_id"`
	DJName   string `json:"dj_name"`
	SongURL  string `json:"song_url"`
}

// RevealRecord marks a day's game as revealed. Created exactly once; its
// existence blocks every later reveal attempt for that day.
type RevealRecord struct {
	RevealerID   string `json:"revealer_id"`
	RevealerName string `json:"revealer_name"`
}

// Guess is one user's guess at who today's DJ is. At most one per
// (day, guesser).
type Guess struct {
	GuesserID       string `json:"guesser_id"`
	GuesserName     string `json:"guesser_name"`
	GuessedUserID   string `json:"guessed_user_id"`
	GuessedUserName string `json:"guessed_user_name"`
}

// GuessOutcome is a scored guess, produced at reveal time. Correctness is
// never shown to anyone before the reveal.
type GuessOutcome struct {
	GuesserName     string `json:"guesser_name"`
	GuessedUserName string `json:"guessed_user_name"`
	Correct         bool   `json:"correct"`
}
