package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/martapons/campustour-be/internal/delivery/http/entity"
	dbEntity "github.com/martapons/campustour-be/internal/entity"
	"github.com/martapons/campustour-be/internal/pkg/llm"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type scriptedReply struct {
	text    string
	sources []llm.Source
	err     error
}

type fakeConversation struct {
	mu      sync.Mutex
	replies []scriptedReply
	sent    []string
}

func (c *fakeConversation) Send(_ context.Context, message string) (*llm.TurnResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, message)
	if len(c.replies) == 0 {
		return nil, errors.New("no scripted reply left")
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return &llm.TurnResponse{Text: r.text, Sources: r.sources}, nil
}

func (c *fakeConversation) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type fakeService struct {
	mu          sync.Mutex
	conv        *fakeConversation
	startErr    error
	bridge      string
	bridgeErr   error
	bridgeCalls int
}

func (s *fakeService) StartTour(_ context.Context) (llm.TourConversation, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	return s.conv, nil
}

func (s *fakeService) GenerateBridge(_ context.Context, userText, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bridgeCalls++
	if s.bridgeErr != nil {
		return "", s.bridgeErr
	}
	if s.bridge != "" {
		return s.bridge, nil
	}
	return "Now that you said " + userText + ", look at the sign.", nil
}

func (s *fakeService) bridgeCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bridgeCalls
}

func challengeJSON(location, correct string, final bool) string {
	return fmt.Sprintf(`{
		"locationName": %q,
		"locationType": "library",
		"englishQuestion": "What happens here?",
		"bridgeContext": "In the library there are rules about noise.",
		"grammarQuestion": "En la biblioteca ___ silencio.",
		"options": ["Se exige", "Se busca", "Se vende", "Se alquila"],
		"correctAnswer": %q,
		"explanation": "The impersonal se expresses a general rule.",
		"isFinal": %t
	}`, location, correct, final)
}

func newTestUsecase(svc llm.TourService, maxTurns int) GameUsecase {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewGameUsecase(GameConfig{
		Service:      svc,
		Log:          log,
		MaxTurns:     maxTurns,
		AdvanceDelay: 0,
	})
}

// waitIdle polls until the session's background fetch has settled.
func waitIdle(t *testing.T, u GameUsecase, sessionID string) *entity.SessionState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state, err := u.GetState(context.Background(), sessionID)
		if err != nil {
			t.Fatalf("should be able to read state: %v", err)
		}
		if !state.Busy {
			return state
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session never became idle")
	return nil
}

func TestStartGame(t *testing.T) {
	conv := &fakeConversation{replies: []scriptedReply{
		{text: challengeJSON("Biblioteca Central", "Se exige", false), sources: []llm.Source{{URI: "https://example.edu/library", Title: "Library"}}},
	}}
	u := newTestUsecase(&fakeService{conv: conv}, 10)

	state, err := u.StartGame(context.Background(), entity.StartGameRequest{LocationHint: "ignored"})
	if err != nil {
		t.Fatalf("should start a session: %v", err)
	}
	if state.Status != entity.StatusActive {
		t.Fatalf("expected status %s, got %s", entity.StatusActive, state.Status)
	}
	if state.Turn != 1 {
		t.Fatalf("expected turn 1, got %d", state.Turn)
	}
	if state.Phase != entity.PhaseConcept {
		t.Fatalf("expected phase %s, got %s", entity.PhaseConcept, state.Phase)
	}
	if state.ActiveChallenge == nil {
		t.Fatal("active session must carry a challenge")
	}
	if len(state.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(state.History))
	}
	if state.History[0].Role != entity.RoleService || state.History[0].Challenge == nil {
		t.Fatal("first history entry should be the delivered challenge")
	}
	if len(state.History[0].Sources) != 1 {
		t.Fatalf("expected 1 grounding source, got %d", len(state.History[0].Sources))
	}
}

func TestStartGameInitialLoadFailure(t *testing.T) {
	conv := &fakeConversation{replies: []scriptedReply{{err: errors.New("service down")}}}
	u := newTestUsecase(&fakeService{conv: conv}, 10)

	state, err := u.StartGame(context.Background(), entity.StartGameRequest{})
	if err != nil {
		t.Fatalf("a failed load is reported through state, not error: %v", err)
	}
	if state.Status != entity.StatusFailed {
		t.Fatalf("expected status %s, got %s", entity.StatusFailed, state.Status)
	}
	if state.ActiveChallenge != nil {
		t.Fatal("failed session must not carry a challenge")
	}
	if len(state.History) != 0 {
		t.Fatalf("no challenge entry may be recorded, got %d entries", len(state.History))
	}

	// failed is terminal: submissions are rejected
	if _, err := u.SubmitReflection(context.Background(), state.SessionID, "hello"); !errors.Is(err, ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}
}

func TestStartGameUnparseableInitialPayload(t *testing.T) {
	conv := &fakeConversation{replies: []scriptedReply{{text: "Welcome to the campus! Let's begin."}}}
	u := newTestUsecase(&fakeService{conv: conv}, 10)

	state, err := u.StartGame(context.Background(), entity.StartGameRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Status != entity.StatusFailed {
		t.Fatalf("expected status %s, got %s", entity.StatusFailed, state.Status)
	}
}

func TestEmptyReflectionRejected(t *testing.T) {
	conv := &fakeConversation{replies: []scriptedReply{
		{text: challengeJSON("Biblioteca Central", "Se exige", false)},
	}}
	svc := &fakeService{conv: conv}
	u := newTestUsecase(svc, 10)

	state, _ := u.StartGame(context.Background(), entity.StartGameRequest{})

	for _, text := range []string{"", "   ", "\n\t "} {
		if _, err := u.SubmitReflection(context.Background(), state.SessionID, text); !errors.Is(err, ErrEmptyReflection) {
			t.Fatalf("expected ErrEmptyReflection for %q, got %v", text, err)
		}
	}

	if svc.bridgeCallCount() != 0 {
		t.Fatal("empty submissions must not trigger a bridge call")
	}
	after, _ := u.GetState(context.Background(), state.SessionID)
	if after.Phase != entity.PhaseConcept {
		t.Fatalf("phase must stay %s, got %s", entity.PhaseConcept, after.Phase)
	}
	if len(after.History) != len(state.History) {
		t.Fatal("rejected submissions must not be recorded")
	}
}

func TestReflectionBridgeSuccess(t *testing.T) {
	conv := &fakeConversation{replies: []scriptedReply{
		{text: challengeJSON("Biblioteca Central", "Se exige", false)},
	}}
	svc := &fakeService{conv: conv, bridge: "You said you keep quiet, and here the library demands it."}
	u := newTestUsecase(svc, 10)

	state, _ := u.StartGame(context.Background(), entity.StartGameRequest{})

	after, err := u.SubmitReflection(context.Background(), state.SessionID, "keep quiet")
	if err != nil {
		t.Fatalf("reflection should be accepted: %v", err)
	}
	if after.Phase != entity.PhaseGrammar {
		t.Fatalf("expected phase %s, got %s", entity.PhaseGrammar, after.Phase)
	}
	if after.ActiveChallenge.BridgeContext != svc.bridge {
		t.Fatalf("bridge context should be personalized, got %q", after.ActiveChallenge.BridgeContext)
	}
	if len(after.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(after.History))
	}
	if after.History[1].Role != entity.RoleUser || after.History[1].Text != "keep quiet" {
		t.Fatal("user submission should be recorded verbatim")
	}
}

func TestReflectionBridgeFailureKeepsContext(t *testing.T) {
	conv := &fakeConversation{replies: []scriptedReply{
		{text: challengeJSON("Biblioteca Central", "Se exige", false)},
	}}
	svc := &fakeService{conv: conv, bridgeErr: errors.New("bridge service down")}
	u := newTestUsecase(svc, 10)

	state, _ := u.StartGame(context.Background(), entity.StartGameRequest{})
	original := state.ActiveChallenge.BridgeContext

	after, err := u.SubmitReflection(context.Background(), state.SessionID, "keep quiet")
	if err != nil {
		t.Fatalf("bridge failure must not block the transition: %v", err)
	}
	if after.Phase != entity.PhaseGrammar {
		t.Fatalf("expected phase %s, got %s", entity.PhaseGrammar, after.Phase)
	}
	if after.ActiveChallenge.BridgeContext != original {
		t.Fatalf("bridge context must stay %q, got %q", original, after.ActiveChallenge.BridgeContext)
	}
}

func TestWrongAnswerLeavesStateUnchanged(t *testing.T) {
	conv := &fakeConversation{replies: []scriptedReply{
		{text: challengeJSON("Biblioteca Central", "Se exige", false)},
	}}
	u := newTestUsecase(&fakeService{conv: conv}, 10)

	state, _ := u.StartGame(context.Background(), entity.StartGameRequest{})
	if _, err := u.SubmitReflection(context.Background(), state.SessionID, "keep quiet"); err != nil {
		t.Fatalf("reflection failed: %v", err)
	}
	before, _ := u.GetState(context.Background(), state.SessionID)

	result, err := u.SubmitAnswer(context.Background(), state.SessionID, "Se busca")
	if err != nil {
		t.Fatalf("wrong answers are results, not errors: %v", err)
	}
	if result.Correct {
		t.Fatal("answer should be wrong")
	}
	if result.Explanation == "" {
		t.Fatal("wrong answers surface the explanation")
	}

	after, _ := u.GetState(context.Background(), state.SessionID)
	if after.Phase != before.Phase || after.Turn != before.Turn {
		t.Fatal("wrong answers must not change phase or turn")
	}
	if after.ActiveChallenge == nil {
		t.Fatal("wrong answers must keep the challenge active")
	}
	if len(after.History) != len(before.History)+1 {
		t.Fatalf("wrong answer appends exactly one entry, got %d new", len(after.History)-len(before.History))
	}

	// retries are unlimited
	if _, err := u.SubmitAnswer(context.Background(), state.SessionID, "Se vende"); err != nil {
		t.Fatalf("retry should be allowed: %v", err)
	}
}

func TestCorrectAnswerOnFinalTurnFinishes(t *testing.T) {
	conv := &fakeConversation{replies: []scriptedReply{
		{text: challengeJSON("Biblioteca Central", "Se exige", false)},
	}}
	u := newTestUsecase(&fakeService{conv: conv}, 1)

	state, _ := u.StartGame(context.Background(), entity.StartGameRequest{})
	u.SubmitReflection(context.Background(), state.SessionID, "keep quiet")

	result, err := u.SubmitAnswer(context.Background(), state.SessionID, "Se exige")
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if !result.Correct || !result.Finished {
		t.Fatalf("expected a correct, finishing result, got %+v", result)
	}

	after, _ := u.GetState(context.Background(), state.SessionID)
	if after.Status != entity.StatusFinished {
		t.Fatalf("expected status %s, got %s", entity.StatusFinished, after.Status)
	}
	if after.Turn != 1 {
		t.Fatalf("turn must never exceed max turns, got %d", after.Turn)
	}
	if conv.sentCount() != 1 {
		t.Fatalf("finishing must not issue another service call, got %d calls", conv.sentCount())
	}

	// finished is terminal
	if _, err := u.SubmitAnswer(context.Background(), state.SessionID, "Se exige"); !errors.Is(err, ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}
}

func TestServiceTerminalFlagFinishes(t *testing.T) {
	conv := &fakeConversation{replies: []scriptedReply{
		{text: challengeJSON("Parada del Tranvía", "Se exige", true)},
	}}
	u := newTestUsecase(&fakeService{conv: conv}, 10)

	state, _ := u.StartGame(context.Background(), entity.StartGameRequest{})
	u.SubmitReflection(context.Background(), state.SessionID, "take the tram")

	result, _ := u.SubmitAnswer(context.Background(), state.SessionID, "Se exige")
	if !result.Finished {
		t.Fatal("the service's terminal flag should end the game")
	}
}

func TestFullTurnScenario(t *testing.T) {
	conv := &fakeConversation{replies: []scriptedReply{
		{text: challengeJSON("Biblioteca Central", "Se exige", false)},
		{text: "```json\n" + challengeJSON("Cafetería del Ágora", "Me gusta", false) + "\n```"},
	}}
	svc := &fakeService{conv: conv}
	u := newTestUsecase(svc, 10)

	state, _ := u.StartGame(context.Background(), entity.StartGameRequest{})
	if _, err := u.SubmitReflection(context.Background(), state.SessionID, "keep quiet"); err != nil {
		t.Fatalf("reflection failed: %v", err)
	}

	if result, _ := u.SubmitAnswer(context.Background(), state.SessionID, "Se busca"); result.Correct {
		t.Fatal("Se busca is wrong")
	}

	result, err := u.SubmitAnswer(context.Background(), state.SessionID, "Se exige")
	if err != nil {
		t.Fatalf("correct answer failed: %v", err)
	}
	if !result.Correct || result.Finished {
		t.Fatalf("turn 1 of 10 must not finish the game, got %+v", result)
	}

	after := waitIdle(t, u, state.SessionID)
	if after.Turn != 2 {
		t.Fatalf("expected turn 2, got %d", after.Turn)
	}
	if after.Phase != entity.PhaseConcept {
		t.Fatalf("expected phase %s, got %s", entity.PhaseConcept, after.Phase)
	}
	if after.ActiveChallenge == nil || after.ActiveChallenge.LocationName != "Cafetería del Ágora" {
		t.Fatal("the fenced next challenge should be installed")
	}
	if conv.sentCount() != 2 {
		t.Fatalf("expected 2 service calls, got %d", conv.sentCount())
	}
}

func TestNextTurnFailureInstallsPlaceholder(t *testing.T) {
	conv := &fakeConversation{replies: []scriptedReply{
		{text: challengeJSON("Biblioteca Central", "Se exige", false)},
		{text: "The campus API seems to be down right now, sorry!"},
	}}
	u := newTestUsecase(&fakeService{conv: conv}, 10)

	state, _ := u.StartGame(context.Background(), entity.StartGameRequest{})
	u.SubmitReflection(context.Background(), state.SessionID, "keep quiet")
	u.SubmitAnswer(context.Background(), state.SessionID, "Se exige")

	after := waitIdle(t, u, state.SessionID)
	if after.Status != entity.StatusActive {
		t.Fatalf("session must stay active, got %s", after.Status)
	}
	if after.ActiveChallenge == nil {
		t.Fatal("an active session must always carry a challenge")
	}
	if after.ActiveChallenge.LocationType != "error" {
		t.Fatalf("expected the placeholder challenge, got %s", after.ActiveChallenge.LocationType)
	}
	if after.Turn != 2 {
		t.Fatalf("the turn advances together with its placeholder, got %d", after.Turn)
	}

	// the placeholder's single choice lets the game continue
	result, err := u.SubmitReflection(context.Background(), state.SessionID, "ok")
	if err != nil {
		t.Fatalf("placeholder turn should accept a reflection: %v", err)
	}
	if result.Phase != entity.PhaseGrammar {
		t.Fatalf("expected phase %s, got %s", entity.PhaseGrammar, result.Phase)
	}
}

func TestBusyGuardRejectsInputDuringAdvance(t *testing.T) {
	conv := &fakeConversation{replies: []scriptedReply{
		{text: challengeJSON("Biblioteca Central", "Se exige", false)},
		{text: challengeJSON("Jardín Botánico", "fue", false)},
	}}
	log := logrus.New()
	log.SetOutput(io.Discard)
	u := NewGameUsecase(GameConfig{
		Service:      &fakeService{conv: conv},
		Log:          log,
		MaxTurns:     10,
		AdvanceDelay: 100 * time.Millisecond,
	})

	state, _ := u.StartGame(context.Background(), entity.StartGameRequest{})
	u.SubmitReflection(context.Background(), state.SessionID, "keep quiet")
	u.SubmitAnswer(context.Background(), state.SessionID, "Se exige")

	if _, err := u.SubmitReflection(context.Background(), state.SessionID, "too eager"); !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy during the pacing window, got %v", err)
	}
	if _, err := u.SubmitAnswer(context.Background(), state.SessionID, "Se exige"); !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy during the pacing window, got %v", err)
	}

	waitIdle(t, u, state.SessionID)
}

func TestSnapshotDoesNotAliasLiveChallenge(t *testing.T) {
	conv := &fakeConversation{replies: []scriptedReply{
		{text: challengeJSON("Biblioteca Central", "Se exige", false)},
	}}
	svc := &fakeService{conv: conv, bridge: "You said you keep quiet, and here the library demands it."}
	u := newTestUsecase(svc, 10)

	state, _ := u.StartGame(context.Background(), entity.StartGameRequest{})
	original := state.History[0].Challenge.BridgeContext

	// read the earlier snapshot while the reflection mutates the live
	// challenge, the way a handler marshals a response it already holds
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			if state.History[0].Challenge.BridgeContext == "" {
				t.Error("snapshot lost its bridge context")
				return
			}
		}
	}()

	if _, err := u.SubmitReflection(context.Background(), state.SessionID, "keep quiet"); err != nil {
		t.Fatalf("reflection failed: %v", err)
	}
	<-done

	if state.History[0].Challenge.BridgeContext != original {
		t.Fatalf("snapshot must keep the delivered context, got %q", state.History[0].Challenge.BridgeContext)
	}
	if state.ActiveChallenge.BridgeContext != original {
		t.Fatalf("snapshot challenge must not track live mutations, got %q", state.ActiveChallenge.BridgeContext)
	}

	after, _ := u.GetState(context.Background(), state.SessionID)
	if after.ActiveChallenge.BridgeContext != svc.bridge {
		t.Fatalf("live state should carry the personalized context, got %q", after.ActiveChallenge.BridgeContext)
	}
	history, _ := u.GetHistory(context.Background(), state.SessionID)
	if history[0].Challenge.BridgeContext != original {
		t.Fatalf("history must keep the delivered context, got %q", history[0].Challenge.BridgeContext)
	}
}

func TestUnknownSession(t *testing.T) {
	u := newTestUsecase(&fakeService{conv: &fakeConversation{}}, 10)
	if _, err := u.GetState(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

type fakeLocationRepo struct {
	locations []dbEntity.CampusLocation
	err       error
}

func (r *fakeLocationRepo) FindAllOrdered(_ *gorm.DB) ([]dbEntity.CampusLocation, error) {
	return r.locations, r.err
}

func (r *fakeLocationRepo) FindBySlug(_ *gorm.DB, slug string) (*dbEntity.CampusLocation, error) {
	for i := range r.locations {
		if r.locations[i].Slug == slug {
			return &r.locations[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func TestListLocations(t *testing.T) {
	repo := &fakeLocationRepo{locations: []dbEntity.CampusLocation{
		{Slug: "biblioteca-central", Name: "Biblioteca Central", Category: "library", GrammarFocus: "impersonal se", StopOrder: 1},
		{Slug: "parada-tranvia", Name: "Parada del Tranvía", Category: "transit", GrammarFocus: "prepositions of place", StopOrder: 2},
	}}
	log := logrus.New()
	log.SetOutput(io.Discard)
	u := NewGameUsecase(GameConfig{
		Service:    &fakeService{conv: &fakeConversation{}},
		Repository: repo,
		Log:        log,
		MaxTurns:   10,
	})

	items, err := u.ListLocations(context.Background())
	if err != nil {
		t.Fatalf("should list the catalog: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(items))
	}
	if items[0].Illustration == "" {
		t.Fatal("locations should carry an illustration key")
	}
}

func TestGetLocation(t *testing.T) {
	repo := &fakeLocationRepo{locations: []dbEntity.CampusLocation{
		{Slug: "biblioteca-central", Name: "Biblioteca Central", Category: "library", GrammarFocus: "impersonal se", StopOrder: 1},
	}}
	log := logrus.New()
	log.SetOutput(io.Discard)
	u := NewGameUsecase(GameConfig{
		Service:    &fakeService{conv: &fakeConversation{}},
		Repository: repo,
		Log:        log,
		MaxTurns:   10,
	})

	item, err := u.GetLocation(context.Background(), "biblioteca-central")
	if err != nil {
		t.Fatalf("should find the seeded stop: %v", err)
	}
	if item.Name != "Biblioteca Central" {
		t.Fatalf("unexpected name: %s", item.Name)
	}

	if _, err := u.GetLocation(context.Background(), "no-such-stop"); !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}
}
