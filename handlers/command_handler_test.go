package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"guessTheDjAPI/internal/gameday"
	"guessTheDjAPI/repository"
	"guessTheDjAPI/services"
	"guessTheDjAPI/storage"
)

type reply struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

func setupHandler(t *testing.T) (*CommandHandler, *services.GameService) {
	t.Helper()
	repo := repository.NewGameRepository(storage.NewMemoryStore())
	svc := services.NewGameService(repo)
	return NewCommandHandler(svc, time.UTC), svc
}

func postCommand(t *testing.T, handler http.HandlerFunc, fields map[string]string) reply {
	t.Helper()

	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	r := httptest.NewRequest(http.MethodPost, "/commands/test", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	handler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("command answered with status %d, want 200", w.Code)
	}
	var rep reply
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("failed to decode reply %q: %v", w.Body.String(), err)
	}
	return rep
}

func TestSuggestReplyIsPrivate(t *testing.T) {
	h, _ := setupHandler(t)

	rep := postCommand(t, h.Suggest, map[string]string{
		"user_id":   "U1",
		"user_name": "alice",
		"text":      "https://song/1",
	})

	if rep.ResponseType != "ephemeral" {
		t.Errorf("suggest reply response_type %q, want ephemeral", rep.ResponseType)
	}
	if !strings.Contains(rep.Text, "https://song/1") {
		t.Errorf("suggest reply %q does not echo the song URL", rep.Text)
	}
}

func TestSuggestWithoutURLShowsUsage(t *testing.T) {
	h, _ := setupHandler(t)

	rep := postCommand(t, h.Suggest, map[string]string{
		"user_id":   "U1",
		"user_name": "alice",
		"text":      "   ",
	})

	if rep.ResponseType != "ephemeral" || !strings.Contains(rep.Text, "Usage") {
		t.Errorf("empty suggest got %+v, want an ephemeral usage hint", rep)
	}
}

func TestPlayBeforeChooseIsRejectedPrivately(t *testing.T) {
	h, _ := setupHandler(t)

	rep := postCommand(t, h.Play, map[string]string{"user_id": "U1", "user_name": "alice"})

	if rep.ResponseType != "ephemeral" {
		t.Errorf("rejection response_type %q, want ephemeral", rep.ResponseType)
	}
	if !strings.Contains(rep.Text, "No DJ has been chosen") {
		t.Errorf("rejection text %q does not state the reason", rep.Text)
	}
}

func TestChooseThenPlayBroadcastsSong(t *testing.T) {
	h, svc := setupHandler(t)

	if _, err := svc.SuggestSong(context.Background(), "U1", "alice", "https://song/1"); err != nil {
		t.Fatalf("SuggestSong failed: %v", err)
	}

	chooseRep := postCommand(t, h.Choose, map[string]string{"user_id": "U9", "user_name": "host"})
	if chooseRep.ResponseType != "in_channel" {
		t.Errorf("choose reply response_type %q, want in_channel", chooseRep.ResponseType)
	}
	if strings.Contains(chooseRep.Text, "alice") {
		t.Errorf("choose reply %q leaks the DJ identity", chooseRep.Text)
	}

	playRep := postCommand(t, h.Play, map[string]string{"user_id": "U2", "user_name": "bob"})
	if playRep.ResponseType != "in_channel" {
		t.Errorf("play reply response_type %q, want in_channel", playRep.ResponseType)
	}
	if !strings.Contains(playRep.Text, "https://song/1") {
		t.Errorf("play reply %q does not carry the song URL", playRep.Text)
	}
}

func TestChooseTwiceIsRejected(t *testing.T) {
	h, svc := setupHandler(t)

	if _, err := svc.SuggestSong(context.Background(), "U1", "alice", "https://song/1"); err != nil {
		t.Fatalf("SuggestSong failed: %v", err)
	}

	postCommand(t, h.Choose, map[string]string{"user_id": "U9", "user_name": "host"})
	rep := postCommand(t, h.Choose, map[string]string{"user_id": "U9", "user_name": "host"})

	if rep.ResponseType != "ephemeral" || !strings.Contains(rep.Text, "already been chosen") {
		t.Errorf("second choose got %+v, want an ephemeral already-chosen rejection", rep)
	}
}

func TestChooseWithExplicitDay(t *testing.T) {
	h, svc := setupHandler(t)

	if _, err := svc.SuggestSong(context.Background(), "U1", "alice", "https://song/1"); err != nil {
		t.Fatalf("SuggestSong failed: %v", err)
	}

	rep := postCommand(t, h.Choose, map[string]string{
		"user_id":   "U9",
		"user_name": "host",
		"text":      "2024-01-01",
	})
	if !strings.Contains(rep.Text, "2024-01-01") {
		t.Errorf("choose reply %q does not name the requested day", rep.Text)
	}

	if _, err := svc.PlaySong(context.Background(), "2024-01-01"); err != nil {
		t.Errorf("PlaySong for the chosen day failed: %v", err)
	}
}

func TestChooseWithMalformedDay(t *testing.T) {
	h, _ := setupHandler(t)

	rep := postCommand(t, h.Choose, map[string]string{
		"user_id":   "U9",
		"user_name": "host",
		"text":      "next tuesday",
	})
	if rep.ResponseType != "ephemeral" || !strings.Contains(rep.Text, "Invalid day") {
		t.Errorf("malformed day got %+v, want an ephemeral format rejection", rep)
	}
}

func TestGuessRejectionsAreEphemeral(t *testing.T) {
	h, svc := setupHandler(t)
	ctx := context.Background()
	today := gameday.Today(time.UTC)

	if _, err := svc.SuggestSong(ctx, "U1", "alice", "https://song/1"); err != nil {
		t.Fatalf("SuggestSong failed: %v", err)
	}
	if _, err := svc.ChooseDJ(ctx, today); err != nil {
		t.Fatalf("ChooseDJ failed: %v", err)
	}

	noMention := postCommand(t, h.Guess, map[string]string{
		"user_id":   "U2",
		"user_name": "bob",
		"text":      "definitely alice",
	})
	if noMention.ResponseType != "ephemeral" || !strings.Contains(noMention.Text, "mention") {
		t.Errorf("mention-less guess got %+v, want an ephemeral format hint", noMention)
	}

	ok := postCommand(t, h.Guess, map[string]string{
		"user_id":   "U2",
		"user_name": "bob",
		"text":      "<@U1|alice>",
	})
	if ok.ResponseType != "ephemeral" || !strings.Contains(ok.Text, "alice") {
		t.Errorf("valid guess got %+v, want a private confirmation naming the pick", ok)
	}

	again := postCommand(t, h.Guess, map[string]string{
		"user_id":   "U2",
		"user_name": "bob",
		"text":      "<@U3|carol>",
	})
	if again.ResponseType != "ephemeral" || !strings.Contains(again.Text, "already guessed") {
		t.Errorf("second guess got %+v, want an ephemeral already-guessed rejection", again)
	}
}

func TestRevealBroadcastsAndLocks(t *testing.T) {
	h, svc := setupHandler(t)
	ctx := context.Background()
	today := gameday.Today(time.UTC)

	if _, err := svc.SuggestSong(ctx, "U1", "alice", "https://song/1"); err != nil {
		t.Fatalf("SuggestSong failed: %v", err)
	}
	if _, err := svc.ChooseDJ(ctx, today); err != nil {
		t.Fatalf("ChooseDJ failed: %v", err)
	}
	if _, err := svc.GuessDJ(ctx, today, "U2", "bob", "<@U1|alice>"); err != nil {
		t.Fatalf("GuessDJ failed: %v", err)
	}

	rep := postCommand(t, h.Reveal, map[string]string{"user_id": "U2", "user_name": "bob"})
	if rep.ResponseType != "in_channel" {
		t.Errorf("reveal reply response_type %q, want in_channel", rep.ResponseType)
	}
	if !strings.Contains(rep.Text, "alice") {
		t.Errorf("reveal reply %q does not name the DJ", rep.Text)
	}

	second := postCommand(t, h.Reveal, map[string]string{"user_id": "U3", "user_name": "carol"})
	if second.ResponseType != "ephemeral" || !strings.Contains(second.Text, "bob") {
		t.Errorf("second reveal got %+v, want an ephemeral rejection naming bob", second)
	}
}

func TestRevealBeforeChoose(t *testing.T) {
	h, _ := setupHandler(t)

	rep := postCommand(t, h.Reveal, map[string]string{"user_id": "U2", "user_name": "bob"})
	if rep.ResponseType != "ephemeral" || !strings.Contains(rep.Text, "No DJ has been chosen") {
		t.Errorf("early reveal got %+v, want an ephemeral not-chosen rejection", rep)
	}
}
