// Package rating records anonymous professor ratings. The module is
// postback-only: the professor detail view attaches 1-5 quick replies
// whose payloads land here.
package rating

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/huahelper/hua-messengerbot-go/internal/bot"
	"github.com/huahelper/hua-messengerbot-go/internal/ctxutil"
	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/messenger"
	"github.com/huahelper/hua-messengerbot-go/internal/messengerutil"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
	"github.com/huahelper/hua-messengerbot-go/internal/ratelimit"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
)

const moduleName = "rating"

// Store is the storage surface the module needs.
type Store interface {
	storage.ProfessorRepository
	storage.RatingRepository
}

// Handler implements bot.Handler for rating submissions.
type Handler struct {
	db      Store
	limiter *ratelimit.KeyedLimiter
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewHandler creates a rating handler. The limiter caps submissions per
// sender; pass the one from ratelimit.NewRatingLimiter.
func NewHandler(db Store, limiter *ratelimit.KeyedLimiter, logger *logger.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		db:      db,
		limiter: limiter,
		logger:  logger,
		metrics: metrics,
	}
}

// ModuleName returns the module identifier.
func (h *Handler) ModuleName() string {
	return moduleName
}

// CanHandle always reports false: ratings only arrive as postbacks.
func (h *Handler) CanHandle(string) bool {
	return false
}

// HandleMessage is never reached; the module matches no text.
func (h *Handler) HandleMessage(context.Context, string) ([]messenger.Message, error) {
	return nil, nil
}

// CanHandlePostback reports whether the payload carries the "rating$"
// prefix.
func (h *Handler) CanHandlePostback(data string) bool {
	return bot.OwnsPostback(moduleName, data)
}

// HandlePostback records a rating. Payload format:
// "rating$rate$<professor-email>$<score>".
func (h *Handler) HandlePostback(ctx context.Context, data string) ([]messenger.Message, error) {
	log := h.logger.WithModule(moduleName)

	pb, err := bot.ParsePostback(data)
	if err != nil {
		return nil, err
	}
	if pb.Action != "rate" {
		return []messenger.Message{messengerutil.NewTextMessage(invalidScoreMsg)}, nil
	}

	email := pb.Param(0)
	score, err := strconv.Atoi(pb.Param(1))
	if err != nil || score < 1 || score > 5 || email == "" {
		return []messenger.Message{messengerutil.NewTextMessage(invalidScoreMsg)}, nil
	}

	if sender := ctxutil.GetSenderID(ctx); sender != "" && h.limiter != nil && !h.limiter.Allow(sender) {
		log.Warnf("Rating rate limited for sender %s", sender)
		return []messenger.Message{messengerutil.NewTextMessage(tooManyRatingsMsg)}, nil
	}

	// Ratings must point at a professor that exists; stale postbacks
	// from a superseded snapshot are answered, not stored. The lookup
	// reports a missing row as (nil, nil).
	prof, err := h.db.GetProfessorByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if prof == nil {
		return []messenger.Message{messengerutil.NewTextMessage(unknownProfessorMsg)}, nil
	}

	rating := &storage.Rating{
		ID:             uuid.NewString(),
		ProfessorEmail: email,
		Score:          score,
		CreatedAt:      time.Now().Unix(),
	}
	if err := h.db.InsertRating(ctx, rating); err != nil {
		return nil, err
	}

	log.Infof("Recorded rating %d/5 for %s", score, email)
	return []messenger.Message{messengerutil.NewTextMessage(
		fmt.Sprintf(thanksFormat, score),
	)}, nil
}
