package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/martapons/campustour-be/internal/delivery/http/entity"
	"github.com/martapons/campustour-be/internal/delivery/http/repository"
	"github.com/martapons/campustour-be/internal/pkg/llm"
	"github.com/martapons/campustour-be/internal/pkg/mapper"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionBusy      = errors.New("session has a request in flight")
	ErrSessionNotActive = errors.New("session is not active")
	ErrWrongPhase       = errors.New("submission does not match the current phase")
	ErrEmptyReflection  = errors.New("reflection text is empty")
	ErrLocationNotFound = errors.New("campus location not found")
)

type GameUsecase interface {
	StartGame(ctx context.Context, req entity.StartGameRequest) (*entity.SessionState, error)
	GetState(ctx context.Context, sessionID string) (*entity.SessionState, error)
	SubmitReflection(ctx context.Context, sessionID, text string) (*entity.SessionState, error)
	SubmitAnswer(ctx context.Context, sessionID, choice string) (*entity.AnswerResult, error)
	GetHistory(ctx context.Context, sessionID string) ([]entity.ChatEntry, error)
	ListLocations(ctx context.Context) ([]entity.LocationItem, error)
	GetLocation(ctx context.Context, slug string) (*entity.LocationItem, error)
}

type GameConfig struct {
	DB           *gorm.DB
	Service      llm.TourService
	Repository   repository.LocationRepository
	Log          *logrus.Logger
	MaxTurns     int
	AdvanceDelay time.Duration
}

// gameSession is one play-through. All fields are guarded by mu; busy marks
// an outstanding service request, during which submissions are rejected.
type gameSession struct {
	mu           sync.Mutex
	id           string
	status       entity.SessionStatus
	turn         int
	phase        entity.Phase
	active       *entity.Challenge
	history      []entity.ChatEntry
	busy         bool
	conversation llm.TourConversation
}

type gameUsecase struct {
	cfg      GameConfig
	mu       sync.Mutex
	sessions map[string]*gameSession
}

func NewGameUsecase(cfg GameConfig) GameUsecase {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 10
	}
	if cfg.AdvanceDelay < 0 {
		cfg.AdvanceDelay = 0
	}
	return &gameUsecase{
		cfg:      cfg,
		sessions: make(map[string]*gameSession),
	}
}

// StartGame creates a session and fetches the first challenge. The location
// hint in the request is accepted but ignored: the campus configuration is
// fixed server-side. A failed initial load leaves the session in the failed
// terminal state with no challenge recorded; the caller restarts by creating
// a new session.
func (u *gameUsecase) StartGame(ctx context.Context, _ entity.StartGameRequest) (*entity.SessionState, error) {
	sess := &gameSession{
		id:     uuid.NewString(),
		status: entity.StatusNotStarted,
	}

	u.mu.Lock()
	u.sessions[sess.id] = sess
	u.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.status = entity.StatusLoading

	conversation, err := u.cfg.Service.StartTour(ctx)
	if err != nil {
		u.cfg.Log.Errorf("session %s: failed to open tour conversation: %v", sess.id, err)
		sess.status = entity.StatusFailed
		return u.snapshotLocked(sess), nil
	}
	sess.conversation = conversation

	resp, err := conversation.Send(ctx, startSentinel)
	var challenge *entity.Challenge
	if err == nil {
		challenge, err = parseChallenge(resp.Text)
	}
	if err != nil {
		u.cfg.Log.Errorf("session %s: initial challenge load failed: %v", sess.id, err)
		sess.status = entity.StatusFailed
		return u.snapshotLocked(sess), nil
	}

	sess.status = entity.StatusActive
	sess.turn = 1
	sess.phase = entity.PhaseConcept
	sess.active = challenge
	sess.history = append(sess.history, entity.ChatEntry{
		Role:      entity.RoleService,
		Phase:     entity.PhaseConcept,
		Challenge: cloneChallenge(challenge),
		Sources:   toSourceRefs(resp.Sources),
		CreatedAt: time.Now(),
	})

	return u.snapshotLocked(sess), nil
}

func (u *gameUsecase) GetState(_ context.Context, sessionID string) (*entity.SessionState, error) {
	sess, err := u.find(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return u.snapshotLocked(sess), nil
}

// SubmitReflection handles the phase-1 text. The bridge call personalizes
// the challenge's grammar context; its failure is non-fatal and never blocks
// the transition to the grammar phase.
func (u *gameUsecase) SubmitReflection(ctx context.Context, sessionID, text string) (*entity.SessionState, error) {
	sess, err := u.find(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.busy {
		sess.mu.Unlock()
		return nil, ErrSessionBusy
	}
	if sess.status != entity.StatusActive || sess.active == nil {
		sess.mu.Unlock()
		return nil, ErrSessionNotActive
	}
	if sess.phase != entity.PhaseConcept {
		sess.mu.Unlock()
		return nil, ErrWrongPhase
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		sess.mu.Unlock()
		return nil, ErrEmptyReflection
	}

	sess.busy = true
	sess.history = append(sess.history, entity.ChatEntry{
		Role:      entity.RoleUser,
		Phase:     entity.PhaseConcept,
		Text:      trimmed,
		CreatedAt: time.Now(),
	})
	target := sess.active.BridgeContext
	sess.mu.Unlock()

	bridge, bridgeErr := u.cfg.Service.GenerateBridge(ctx, trimmed, target)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if bridgeErr != nil {
		u.cfg.Log.Warnf("session %s: bridge generation failed, keeping original context: %v", sess.id, bridgeErr)
	} else if sess.active != nil {
		sess.active.BridgeContext = bridge
	}
	sess.phase = entity.PhaseGrammar
	sess.busy = false

	return u.snapshotLocked(sess), nil
}

// SubmitAnswer handles the phase-2 choice. Wrong answers record the attempt
// and surface the explanation without touching the rest of the state; the
// user may retry indefinitely. A correct answer on the final turn finishes
// the session without another service call; otherwise the next challenge is
// fetched in the background after the pacing delay.
func (u *gameUsecase) SubmitAnswer(_ context.Context, sessionID, choice string) (*entity.AnswerResult, error) {
	sess, err := u.find(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.busy {
		return nil, ErrSessionBusy
	}
	if sess.status != entity.StatusActive || sess.active == nil {
		return nil, ErrSessionNotActive
	}
	if sess.phase != entity.PhaseGrammar {
		return nil, ErrWrongPhase
	}

	sess.history = append(sess.history, entity.ChatEntry{
		Role:      entity.RoleUser,
		Phase:     entity.PhaseGrammar,
		Text:      choice,
		CreatedAt: time.Now(),
	})

	if choice != sess.active.CorrectAnswer {
		return &entity.AnswerResult{
			Correct:     false,
			Explanation: sess.active.Explanation,
		}, nil
	}

	final := sess.active.IsFinal || sess.turn >= u.cfg.MaxTurns
	sess.active = nil

	if final {
		sess.status = entity.StatusFinished
		return &entity.AnswerResult{Correct: true, Finished: true}, nil
	}

	sess.busy = true
	go u.advance(sess)

	return &entity.AnswerResult{Correct: true}, nil
}

// advance fetches the next challenge after the pacing delay. The turn
// counter only moves together with installing the fetched challenge or its
// placeholder, so an active session never ends up without one. The call runs
// on a background context: in-flight requests run to completion and any
// timeout belongs to the transport.
func (u *gameUsecase) advance(sess *gameSession) {
	time.Sleep(u.cfg.AdvanceDelay)

	sess.mu.Lock()
	next := sess.turn + 1
	conversation := sess.conversation
	sess.mu.Unlock()

	var challenge *entity.Challenge
	var sources []entity.SourceReference

	resp, err := conversation.Send(context.Background(), fmt.Sprintf(advanceSentinel, next))
	if err == nil {
		challenge, err = parseChallenge(resp.Text)
		sources = toSourceRefs(resp.Sources)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err != nil {
		u.cfg.Log.Errorf("session %s: next-turn fetch failed, installing placeholder: %v", sess.id, err)
		challenge = errorChallenge()
		sources = nil
	}

	sess.turn = next
	sess.phase = entity.PhaseConcept
	sess.active = challenge
	sess.history = append(sess.history, entity.ChatEntry{
		Role:      entity.RoleService,
		Phase:     entity.PhaseConcept,
		Challenge: cloneChallenge(challenge),
		Sources:   sources,
		CreatedAt: time.Now(),
	})
	sess.busy = false
}

// cloneChallenge copies a challenge so history entries and snapshots never
// share memory with the live challenge the controller keeps mutating.
func cloneChallenge(c *entity.Challenge) *entity.Challenge {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Options = append([]string(nil), c.Options...)
	return &cp
}

func (u *gameUsecase) GetHistory(_ context.Context, sessionID string) ([]entity.ChatEntry, error) {
	sess, err := u.find(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	history := make([]entity.ChatEntry, len(sess.history))
	copy(history, sess.history)
	return history, nil
}

func (u *gameUsecase) ListLocations(_ context.Context) ([]entity.LocationItem, error) {
	locations, err := u.cfg.Repository.FindAllOrdered(u.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to load campus catalog: %w", err)
	}

	items := make([]entity.LocationItem, 0, len(locations))
	for i := range locations {
		items = append(items, mapper.ToLocationItem(&locations[i]))
	}
	return items, nil
}

func (u *gameUsecase) GetLocation(_ context.Context, slug string) (*entity.LocationItem, error) {
	location, err := u.cfg.Repository.FindBySlug(u.cfg.DB, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to load campus location: %w", err)
	}

	item := mapper.ToLocationItem(location)
	return &item, nil
}

func (u *gameUsecase) find(sessionID string) (*gameSession, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	sess, ok := u.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// snapshotLocked copies the session state for the rendering layer. Callers
// must hold sess.mu.
func (u *gameUsecase) snapshotLocked(sess *gameSession) *entity.SessionState {
	state := &entity.SessionState{
		SessionID: sess.id,
		Status:    sess.status,
		Turn:      sess.turn,
		MaxTurns:  u.cfg.MaxTurns,
		Phase:     sess.phase,
		Busy:      sess.busy,
		History:   make([]entity.ChatEntry, len(sess.history)),
	}
	copy(state.History, sess.history)
	state.ActiveChallenge = cloneChallenge(sess.active)
	return state
}
