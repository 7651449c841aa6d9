package rating

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huahelper/hua-messengerbot-go/internal/ctxutil"
	"github.com/huahelper/hua-messengerbot-go/internal/errors"
	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
	"github.com/huahelper/hua-messengerbot-go/internal/ratelimit"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
)

type stubStore struct {
	professors []storage.Professor
	ratings    []*storage.Rating
	insertErr  error
}

func (s *stubStore) GetProfessorByEmail(_ context.Context, email string) (*storage.Professor, error) {
	for i := range s.professors {
		if s.professors[i].Email == email {
			return &s.professors[i], nil
		}
	}
	// Absent rows come back (nil, nil), matching the repository.
	return nil, nil
}

func (s *stubStore) GetAllProfessors(context.Context) ([]storage.Professor, error) {
	return s.professors, nil
}

func (s *stubStore) SaveProfessor(context.Context, *storage.Professor) error { return nil }

func (s *stubStore) SaveProfessorsBatch(context.Context, []*storage.Professor) error { return nil }

func (s *stubStore) CountProfessors(context.Context) (int, error) { return len(s.professors), nil }

func (s *stubStore) InsertRating(_ context.Context, r *storage.Rating) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.ratings = append(s.ratings, r)
	return nil
}

func (s *stubStore) GetProfessorRatingSummary(context.Context, string) (*storage.RatingSummary, error) {
	return &storage.RatingSummary{}, nil
}

func (s *stubStore) CountRatings(context.Context) (int, error) { return len(s.ratings), nil }

func newTestHandler(store *stubStore, limiter *ratelimit.KeyedLimiter) *Handler {
	return NewHandler(store, limiter, logger.New("error"), metrics.New(prometheus.NewRegistry()))
}

func testStore() *stubStore {
	return &stubStore{
		professors: []storage.Professor{
			{Email: "varlamis@hua.gr", FirstName: "Ηρακλής", LastName: "Βαρλάμης"},
		},
	}
}

func TestTextNeverHandled(t *testing.T) {
	h := newTestHandler(testStore(), nil)

	assert.False(t, h.CanHandle("αξιολόγηση 5"))
	msgs, err := h.HandleMessage(context.Background(), "οτιδήποτε")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestCanHandlePostback(t *testing.T) {
	h := newTestHandler(testStore(), nil)

	assert.True(t, h.CanHandlePostback("rating$rate$varlamis@hua.gr$4"))
	assert.False(t, h.CanHandlePostback("professor$detail$varlamis@hua.gr"))
}

func TestRecordRating(t *testing.T) {
	store := testStore()
	h := newTestHandler(store, nil)

	msgs, err := h.HandlePostback(context.Background(), "rating$rate$varlamis@hua.gr$4")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Ευχαριστώ")
	assert.Contains(t, msgs[0].Text, "4/5")

	require.Len(t, store.ratings, 1)
	r := store.ratings[0]
	assert.Equal(t, "varlamis@hua.gr", r.ProfessorEmail)
	assert.Equal(t, 4, r.Score)
	assert.NotEmpty(t, r.ID)
	assert.NotZero(t, r.CreatedAt)
}

func TestInvalidScores(t *testing.T) {
	store := testStore()
	h := newTestHandler(store, nil)

	for _, data := range []string{
		"rating$rate$varlamis@hua.gr$0",
		"rating$rate$varlamis@hua.gr$6",
		"rating$rate$varlamis@hua.gr$abc",
		"rating$rate$$4",
		"rating$comment$varlamis@hua.gr$4",
	} {
		msgs, err := h.HandlePostback(context.Background(), data)
		require.NoError(t, err, "data=%q", data)
		require.Len(t, msgs, 1, "data=%q", data)
		assert.Equal(t, invalidScoreMsg, msgs[0].Text, "data=%q", data)
	}
	assert.Empty(t, store.ratings)
}

func TestUnknownProfessorRejected(t *testing.T) {
	store := testStore()
	h := newTestHandler(store, nil)

	msgs, err := h.HandlePostback(context.Background(), "rating$rate$ghost@hua.gr$3")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, unknownProfessorMsg, msgs[0].Text)
	assert.Empty(t, store.ratings)
}

func TestRateLimiting(t *testing.T) {
	store := testStore()
	limiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:       "rating",
		Burst:      1,
		RefillRate: 0.001,
	})
	defer limiter.Stop()
	h := newTestHandler(store, limiter)

	ctx := ctxutil.WithSenderID(context.Background(), "psid-1")

	msgs, err := h.HandlePostback(ctx, "rating$rate$varlamis@hua.gr$5")
	require.NoError(t, err)
	assert.Contains(t, msgs[0].Text, "Ευχαριστώ")

	msgs, err = h.HandlePostback(ctx, "rating$rate$varlamis@hua.gr$5")
	require.NoError(t, err)
	assert.Equal(t, tooManyRatingsMsg, msgs[0].Text)
	assert.Len(t, store.ratings, 1)
}

func TestInsertErrorPropagates(t *testing.T) {
	store := testStore()
	store.insertErr = errors.ErrSnapshotUnavailable
	h := newTestHandler(store, nil)

	_, err := h.HandlePostback(context.Background(), "rating$rate$varlamis@hua.gr$4")
	assert.ErrorIs(t, err, errors.ErrSnapshotUnavailable)
}
