package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/domain/srs"
	"github.com/okeefe/recite-api/internal/events"
	"github.com/okeefe/recite-api/internal/platform/logger"
	"github.com/okeefe/recite-api/internal/scheduler"
	"github.com/okeefe/recite-api/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*sessionService)(nil)

// sessionService implements the Service interface. Live sessions are kept
// in an in-memory registry; nothing about a session itself is persisted.
type sessionService struct {
	repo      Repository
	algorithm srs.Algorithm
	emitter   events.EventEmitter
	logger    *slog.Logger
	clock     func() time.Time

	// mu guards the registry maps only; each session carries its own lock.
	mu       sync.Mutex
	sessions map[uuid.UUID]*session  // session ID -> live session
	byDeck   map[uuid.UUID]uuid.UUID // deck ID -> live session ID
}

// NewService creates the review session service.
func NewService(
	repo Repository,
	algorithm srs.Algorithm,
	emitter events.EventEmitter,
	log *slog.Logger,
) Service {
	if repo == nil {
		panic("repo cannot be nil")
	}
	if algorithm == nil {
		panic("algorithm cannot be nil")
	}
	if emitter == nil {
		panic("emitter cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &sessionService{
		repo:      repo,
		algorithm: algorithm,
		emitter:   emitter,
		logger:    log.With(slog.String("component", "review_service")),
		clock:     time.Now,
		sessions:  make(map[uuid.UUID]*session),
		byDeck:    make(map[uuid.UUID]uuid.UUID),
	}
}

// StartSession implements Service.StartSession.
func (s *sessionService) StartSession(ctx context.Context, deckID uuid.UUID) (Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("starting study session", slog.String("deck_id", deckID.String()))

	deck, err := s.repo.GetDeck(ctx, deckID)
	if err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			log.Warn("deck not found for session", slog.String("deck_id", deckID.String()))
			return Session{}, err
		}
		log.Error("failed to load deck for session",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return Session{}, NewStartSessionError("failed to load deck", err)
	}

	cards, err := s.repo.ListCards(ctx, deckID)
	if err != nil {
		log.Error("failed to load cards for session",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return Session{}, NewStartSessionError("failed to load cards", err)
	}

	now := s.clock().UTC()
	queue := scheduler.CardsToStudy(deck, cards, now)
	if len(queue) == 0 {
		// Nothing due today is a normal outcome: the session completes on
		// the spot and is never registered.
		log.Info("nothing to study, session complete",
			slog.String("deck_id", deckID.String()))
		return Session{
			ID:        uuid.New(),
			DeckID:    deckID,
			Phase:     PhaseComplete,
			StartedAt: now,
		}, nil
	}

	sess := newSession(deckID, queue, now)

	s.mu.Lock()
	if active, ok := s.byDeck[deckID]; ok {
		s.mu.Unlock()
		log.Warn("deck already has an active session",
			slog.String("deck_id", deckID.String()),
			slog.String("session_id", active.String()))
		return Session{}, ErrSessionActive
	}
	s.sessions[sess.id] = sess
	s.byDeck[deckID] = sess.id
	s.mu.Unlock()

	log.Info("study session started",
		slog.String("session_id", sess.id.String()),
		slog.String("deck_id", deckID.String()),
		slog.Int("queue_size", len(queue)))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// GetSession implements Service.GetSession.
func (s *sessionService) GetSession(ctx context.Context, sessionID uuid.UUID) (Session, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return Session{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// CurrentCard implements Service.CurrentCard.
func (s *sessionService) CurrentCard(ctx context.Context, sessionID uuid.UUID) (*domain.Card, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.phase != PhaseInProgress {
		return nil, fmt.Errorf("%w: session %s is %s", ErrSessionState, sess.id, sess.phase)
	}

	card := sess.current()
	return &card, nil
}

// RecordRating implements Service.RecordRating.
func (s *sessionService) RecordRating(
	ctx context.Context,
	sessionID uuid.UUID,
	cardID uuid.UUID,
	rating domain.Rating,
	timeTaken time.Duration,
) (*RatingResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.phase != PhaseInProgress {
		log.Warn("rating rejected, session not in progress",
			slog.String("session_id", sessionID.String()),
			slog.String("phase", string(sess.phase)))
		return nil, fmt.Errorf("%w: session %s is %s", ErrSessionState, sess.id, sess.phase)
	}

	current := sess.current()
	if current.ID != cardID {
		log.Warn("rating rejected, card is not at the queue position",
			slog.String("session_id", sessionID.String()),
			slog.String("card_id", cardID.String()),
			slog.String("current_card_id", current.ID.String()))
		return nil, fmt.Errorf("%w: card %s is not the current card", ErrSessionState, cardID)
	}

	now := s.clock().UTC()

	// NewReviewLog also validates the rating and the time taken, so an
	// invalid rating is rejected here before anything mutates.
	entry, err := domain.NewReviewLog(cardID, rating, timeTaken, now)
	if err != nil {
		log.Warn("rating rejected, invalid entry",
			slog.String("session_id", sessionID.String()),
			slog.String("card_id", cardID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	sess.phase = PhaseGrading

	state, interval, err := s.algorithm.Review(current.Learning, rating, elapsedDays(current, now), now)
	if err != nil {
		sess.phase = PhaseInProgress
		log.Error("failed to compute next learning state",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()),
			slog.String("card_id", cardID.String()))
		return nil, NewRecordRatingError("failed to compute next learning state", err)
	}

	card := current
	if err := card.ApplyReview(state, entry, now); err != nil {
		sess.phase = PhaseInProgress
		log.Error("failed to apply review",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()),
			slog.String("card_id", cardID.String()))
		return nil, NewRecordRatingError("failed to apply review", err)
	}

	if err := s.repo.SaveReview(ctx, &card, entry); err != nil {
		// The session stays at the same position so the identical call can
		// be retried once storage recovers.
		sess.phase = PhaseInProgress
		log.Error("failed to persist review",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()),
			slog.String("card_id", cardID.String()))
		return nil, NewRecordRatingError("failed to persist review", err)
	}

	sess.position++
	sess.reviewed++
	sess.studyTime += timeTaken

	if sess.position == len(sess.queue) {
		sess.phase = PhaseComplete
		s.finishSession(ctx, log, sess, events.EventSessionCompleted)
		log.Info("study session completed",
			slog.String("session_id", sess.id.String()),
			slog.String("deck_id", sess.deckID.String()),
			slog.Int("reviewed", sess.reviewed),
			slog.Duration("study_time", sess.studyTime))
	} else {
		sess.phase = PhaseInProgress
	}

	log.Debug("rating recorded",
		slog.String("session_id", sess.id.String()),
		slog.String("card_id", cardID.String()),
		slog.String("rating", rating.String()),
		slog.Int("interval", interval),
		slog.Int("position", sess.position))

	return &RatingResult{
		Card:     card,
		Interval: interval,
		Session:  sess.snapshot(),
	}, nil
}

// AbortSession implements Service.AbortSession.
func (s *sessionService) AbortSession(ctx context.Context, sessionID uuid.UUID) (Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sess, err := s.lookup(sessionID)
	if err != nil {
		return Session{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.phase != PhaseInProgress {
		return Session{}, fmt.Errorf("%w: session %s is %s", ErrSessionState, sess.id, sess.phase)
	}

	sess.phase = PhaseAborted
	s.finishSession(ctx, log, sess, events.EventSessionAborted)

	log.Info("study session aborted",
		slog.String("session_id", sess.id.String()),
		slog.String("deck_id", sess.deckID.String()),
		slog.Int("reviewed", sess.reviewed))

	return sess.snapshot(), nil
}

// lookup finds a live session by ID.
func (s *sessionService) lookup(id uuid.UUID) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// finishSession retires a terminal session: it leaves the registry, and if
// any cards were reviewed the deck's statistics are re-derived and a deck
// event is emitted. Stats persistence here is best-effort: the ratings are
// already durable, the cards remain the source of truth, and the background
// refresher heals the cached aggregates from the emitted event.
// The caller must hold sess.mu.
func (s *sessionService) finishSession(
	ctx context.Context,
	log *slog.Logger,
	sess *session,
	eventType events.EventType,
) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	delete(s.byDeck, sess.deckID)
	s.mu.Unlock()

	if sess.reviewed == 0 {
		return
	}

	if err := s.refreshDeckStats(ctx, sess.deckID); err != nil {
		log.Error("failed to refresh deck stats after session",
			slog.String("error", err.Error()),
			slog.String("deck_id", sess.deckID.String()))
	}

	if err := s.emitter.EmitEvent(ctx, events.NewDeckEvent(eventType, sess.deckID)); err != nil {
		log.Error("failed to emit deck event",
			slog.String("error", err.Error()),
			slog.String("deck_id", sess.deckID.String()))
	}
}

// refreshDeckStats re-derives a deck's aggregates from its cards and
// persists them.
func (s *sessionService) refreshDeckStats(ctx context.Context, deckID uuid.UUID) error {
	cards, err := s.repo.ListCards(ctx, deckID)
	if err != nil {
		return fmt.Errorf("failed to load cards: %w", err)
	}

	stats := scheduler.RecomputeStats(cards)
	if err := s.repo.SaveDeckStats(ctx, deckID, stats); err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	return nil
}

// elapsedDays is the time since the card was last reviewed (or created, if
// never reviewed), in days, floored at zero.
func elapsedDays(card domain.Card, now time.Time) float64 {
	since := card.CreatedAt
	if card.Learning.LastReviewedAt != nil {
		since = *card.Learning.LastReviewedAt
	}

	days := now.Sub(since).Hours() / 24
	if days < 0 {
		return 0
	}
	return days
}
