package service

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huahelper/hua-messengerbot-go/internal/errors"
	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
)

type stubStore struct {
	services  []storage.StudentService
	platforms []storage.EPlatform
	listErr   error
}

func (s *stubStore) GetStudentServiceByName(_ context.Context, name string) (*storage.StudentService, error) {
	for i := range s.services {
		if s.services[i].Name == name {
			return &s.services[i], nil
		}
	}
	// Absent rows come back (nil, nil), matching the repository.
	return nil, nil
}

func (s *stubStore) GetAllStudentServices(_ context.Context) ([]storage.StudentService, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.services, nil
}

func (s *stubStore) SaveStudentService(context.Context, *storage.StudentService) error { return nil }

func (s *stubStore) CountStudentServices(context.Context) (int, error) {
	return len(s.services), nil
}

func (s *stubStore) GetEPlatformByName(_ context.Context, name string) (*storage.EPlatform, error) {
	for i := range s.platforms {
		if s.platforms[i].Name == name {
			return &s.platforms[i], nil
		}
	}
	// Absent rows come back (nil, nil), matching the repository.
	return nil, nil
}

func (s *stubStore) GetAllEPlatforms(_ context.Context) ([]storage.EPlatform, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.platforms, nil
}

func (s *stubStore) SaveEPlatform(context.Context, *storage.EPlatform) error { return nil }

func (s *stubStore) CountEPlatforms(context.Context) (int, error) { return len(s.platforms), nil }

func testStore() *stubStore {
	return &stubStore{
		services: []storage.StudentService{
			{Name: "Φοιτητική Μέριμνα", Description: "Σίτιση και στέγαση φοιτητών.", Email: "merimna@hua.gr", Phone: "210-9549100", URL: "https://hua.gr/merimna"},
			{Name: "Συμβουλευτικό Κέντρο", Description: "Ψυχολογική υποστήριξη.", Email: "counseling@hua.gr"},
		},
		platforms: []storage.EPlatform{
			{Name: "e-Class", Description: "Πλατφόρμα ασύγχρονης εκπαίδευσης.", URL: "https://eclass.hua.gr"},
			{Name: "e-Studies", Description: "Φοιτητολόγιο.", URL: "https://e-studies.hua.gr"},
			{Name: "Nextcloud", Description: "Cloud και συνεργασία.", URL: "https://mycloud.ditapps.hua.gr"},
		},
	}
}

func newTestHandler(store *stubStore) *Handler {
	return NewHandler(store, logger.New("error"), metrics.New(prometheus.NewRegistry()))
}

func TestCanHandle(t *testing.T) {
	h := newTestHandler(testStore())

	tests := []struct {
		text string
		want bool
	}{
		{"Υπηρεσίες", true},
		{"Πλατφόρμες", true},
		{"Υπηρεσία μέριμνα", true},
		{"eclass", true},
		{"Nextcloud", true},
		{"Οδηγοί", true},
		{"Βιβλιοθήκη", false},
		{"Email Βαρλάμης", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, h.CanHandle(tt.text), "text=%q", tt.text)
	}
}

func TestListServices(t *testing.T) {
	h := newTestHandler(testStore())

	msgs, err := h.HandleMessage(context.Background(), "Υπηρεσίες")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0].Text, servicesHeader))
	assert.Contains(t, msgs[0].Text, "Φοιτητική Μέριμνα")
	assert.Contains(t, msgs[0].Text, "Συμβουλευτικό Κέντρο")
}

func TestListPlatforms(t *testing.T) {
	h := newTestHandler(testStore())

	msgs, err := h.HandleMessage(context.Background(), "Πλατφόρμες")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "e-Class — https://eclass.hua.gr")
}

func TestServiceDetails(t *testing.T) {
	h := newTestHandler(testStore())

	msgs, err := h.HandleMessage(context.Background(), "Υπηρεσία μέριμνα")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Σίτιση και στέγαση")
	assert.Contains(t, msgs[0].Text, "merimna@hua.gr")
}

func TestPlatformNoun(t *testing.T) {
	h := newTestHandler(testStore())

	msgs, err := h.HandleMessage(context.Background(), "eclass")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.True(t, msgs[0].IsCarousel())
	assert.Equal(t, "e-Class", msgs[0].Attachment.Payload.Elements[0].Title)
	assert.Contains(t, msgs[1].Text, "https://eclass.hua.gr")
}

func TestTutorialsCarousel(t *testing.T) {
	h := newTestHandler(testStore())

	msgs, err := h.HandleMessage(context.Background(), "Οδηγοί")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.True(t, msgs[0].IsCarousel())
	require.Len(t, msgs[0].Attachment.Payload.Elements, 3)
	assert.Equal(t, "https://eclass.hua.gr", msgs[0].Attachment.Payload.Elements[0].Buttons[0].URL)
	assert.Equal(t, "service$platform$e-Class", msgs[0].Attachment.Payload.Elements[0].Buttons[1].Payload)
}

func TestUnknownService(t *testing.T) {
	h := newTestHandler(testStore())

	msgs, err := h.HandleMessage(context.Background(), "Υπηρεσία στάθμευση")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, noServiceMessage, msgs[0].Text)
}

func TestStorageErrorPropagates(t *testing.T) {
	store := testStore()
	store.listErr = errors.ErrSnapshotUnavailable
	h := newTestHandler(store)

	_, err := h.HandleMessage(context.Background(), "Υπηρεσίες")
	assert.ErrorIs(t, err, errors.ErrSnapshotUnavailable)
}

func TestHandlePostbackPlatform(t *testing.T) {
	h := newTestHandler(testStore())

	msgs, err := h.HandlePostback(context.Background(), "service$platform$Nextcloud")
	require.NoError(t, err)
	require.NotEmpty(t, msgs)

	var text string
	for _, m := range msgs {
		if m.Text != "" {
			text = m.Text
		}
	}
	assert.Contains(t, text, "https://mycloud.ditapps.hua.gr")
}
