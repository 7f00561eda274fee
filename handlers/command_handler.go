package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"guessTheDjAPI/internal/gameday"
	"guessTheDjAPI/middleware"
	"guessTheDjAPI/services"
)

// CommandHandler translates inbound slash-command payloads into game
// operations and formats the replies. Domain rejections become ephemeral
// messages quoting the reason; store failures become a generic ephemeral
// message and are logged. A delivered command always answers HTTP 200 so the
// chat platform renders the reply instead of a retry banner.
type CommandHandler struct {
	gameService *services.GameService
	location    *time.Location
}

func NewCommandHandler(gameService *services.GameService, location *time.Location) *CommandHandler {
	return &CommandHandler{
		gameService: gameService,
		location:    location,
	}
}

func (h *CommandHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid command payload")
		return
	}

	songURL := strings.TrimSpace(cmd.Text)
	if songURL == "" {
		middleware.ObserveCommand("suggest", "missing_url")
		respondWithMsg(w, ephemeralMsg("Usage: /suggest <song URL>"))
		return
	}

	result, err := h.gameService.SuggestSong(ctx, cmd.UserID, cmd.UserName, songURL)
	if err != nil {
		h.respondForGameError(w, "suggest", err)
		return
	}

	middleware.ObserveCommand("suggest", "ok")
	respondWithMsg(w, slack.Msg{
		ResponseType: responseType(result.Visibility),
		Text:         fmt.Sprintf("Suggestion added: %s. It stays in the pool until it gets played.", result.Suggestion.SongURL),
	})
}

func (h *CommandHandler) Choose(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid command payload")
		return
	}

	// An explicit day may be passed for catch-up rounds; default is today.
	day := gameday.Today(h.location)
	if arg := strings.TrimSpace(cmd.Text); arg != "" {
		if !gameday.Valid(arg) {
			middleware.ObserveCommand("choose", "invalid_day")
			respondWithMsg(w, ephemeralMsg(fmt.Sprintf("Invalid day %q, expected YYYY-MM-DD.", arg)))
			return
		}
		day = arg
	}

	result, err := h.gameService.ChooseDJ(ctx, day)
	if err != nil {
		h.respondForGameError(w, "choose", err)
		return
	}

	middleware.ObserveCommand("choose", "ok")
	respondWithMsg(w, slack.Msg{
		ResponseType: responseType(result.Visibility),
		Text:         fmt.Sprintf("The DJ of %s has been chosen! Use /play to hear the song and /guess to guess who picked it.", result.Day),
	})
}

func (h *CommandHandler) Play(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := slack.SlashCommandParse(r); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid command payload")
		return
	}

	result, err := h.gameService.PlaySong(ctx, gameday.Today(h.location))
	if err != nil {
		h.respondForGameError(w, "play", err)
		return
	}

	middleware.ObserveCommand("play", "ok")
	respondWithMsg(w, slack.Msg{
		ResponseType: responseType(result.Visibility),
		Text:         fmt.Sprintf("Today's song: %s", result.SongURL),
	})
}

func (h *CommandHandler) Guess(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid command payload")
		return
	}

	day := gameday.Today(h.location)
	result, err := h.gameService.GuessDJ(ctx, day, cmd.UserID, cmd.UserName, cmd.Text)
	if err != nil {
		h.respondForGameError(w, "guess", err)
		return
	}

	middleware.ObserveCommand("guess", "ok")
	respondWithMsg(w, slack.Msg{
		ResponseType: responseType(result.Visibility),
		Text:         fmt.Sprintf("Your guess for %s is in. The result comes out at the reveal.", result.Guess.GuessedUserName),
	})
}

func (h *CommandHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid command payload")
		return
	}

	day := gameday.Today(h.location)
	result, err := h.gameService.RevealDJ(ctx, day, cmd.UserID, cmd.UserName)
	if err != nil {
		h.respondForGameError(w, "reveal", err)
		return
	}

	middleware.ObserveCommand("reveal", "ok")
	respondWithMsg(w, revealMsg(result))
}

// revealMsg renders the reveal as a block list: DJ announcement, then one
// line per guess with a correctness marker.
func revealMsg(result *services.RevealResult) slack.Msg {
	header := fmt.Sprintf("*%s* was the DJ of the day with %s", result.DJName, result.SongURL)
	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, header, false, false), nil, nil),
		slack.NewDividerBlock(),
	}

	if len(result.Guesses) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, "Nobody dared to guess today.", false, false), nil, nil))
	}
	for _, g := range result.Guesses {
		marker := "❌"
		if g.Correct {
			marker = "✅"
		}
		line := fmt.Sprintf("%s %s guessed %s", marker, g.GuesserName, g.GuessedUserName)
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, line, false, false), nil, nil))
	}

	return slack.Msg{
		ResponseType: responseType(result.Visibility),
		Text:         header,
		Blocks:       slack.Blocks{BlockSet: blocks},
	}
}

// respondForGameError maps domain errors to private rejection replies and
// anything else to a generic failure, never leaking internal detail.
func (h *CommandHandler) respondForGameError(w http.ResponseWriter, command string, err error) {
	var revealed *services.AlreadyRevealedError

	switch {
	case errors.As(err, &revealed):
		middleware.ObserveCommand(command, "already_revealed")
		respondWithMsg(w, ephemeralMsg(fmt.Sprintf("The DJ was already revealed by %s.", revealed.By)))
	case errors.Is(err, services.ErrAlreadyChosen):
		middleware.ObserveCommand(command, "already_chosen")
		respondWithMsg(w, ephemeralMsg("A DJ has already been chosen today."))
	case errors.Is(err, services.ErrNoSuggestions):
		middleware.ObserveCommand(command, "no_suggestions")
		respondWithMsg(w, ephemeralMsg("There are no song suggestions yet. Use /suggest to add one."))
	case errors.Is(err, services.ErrNotChosenYet):
		middleware.ObserveCommand(command, "not_chosen")
		respondWithMsg(w, ephemeralMsg("No DJ has been chosen yet today. Use /choose first."))
	case errors.Is(err, services.ErrAlreadyGuessed):
		middleware.ObserveCommand(command, "already_guessed")
		respondWithMsg(w, ephemeralMsg("You already guessed today. One guess per day!"))
	case errors.Is(err, services.ErrInvalidGuess):
		middleware.ObserveCommand(command, "invalid_guess")
		respondWithMsg(w, ephemeralMsg("I couldn't find a user mention in your guess. Try /guess @someone."))
	default:
		middleware.ObserveCommand(command, "store_error")
		log.Printf("%s command failed: %v", command, err)
		respondWithMsg(w, ephemeralMsg("Something went wrong talking to storage. Please try again."))
	}
}

func responseType(v services.Visibility) string {
	if v == services.VisibilityBroadcast {
		return slack.ResponseTypeInChannel
	}
	return slack.ResponseTypeEphemeral
}

func ephemeralMsg(text string) slack.Msg {
	return slack.Msg{ResponseType: slack.ResponseTypeEphemeral, Text: text}
}

// Helper functions
func respondWithMsg(w http.ResponseWriter, msg slack.Msg) {
	response, err := json.Marshal(msg)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
