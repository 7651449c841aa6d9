package warmup

import (
	"context"
	"reflect"
	"testing"

	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
)

func TestParseModules(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "professor", []string{"professor"}},
		{"list with spaces", " professor, course ,contact", []string{"professor", "course", "contact"}},
		{"trailing comma", "facility,", []string{"facility"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseModules(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseModules(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStatsCounts(t *testing.T) {
	stats := &Stats{}
	stats.Professors.Add(3)
	stats.Contacts.Add(5)

	counts := stats.Counts()
	if counts["professors"] != 3 {
		t.Errorf("professors = %d, want 3", counts["professors"])
	}
	if counts["contacts"] != 5 {
		t.Errorf("contacts = %d, want 5", counts["contacts"])
	}
	if counts["courses"] != 0 {
		t.Errorf("courses = %d, want 0", counts["courses"])
	}
	if len(counts) != len(AllModules())+1 {
		// service covers both student services and e-platforms
		t.Errorf("Counts() has %d tables", len(counts))
	}
}

func TestRunSkipsWarmCache(t *testing.T) {
	db, err := storage.NewTestDB()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	professor := &storage.Professor{Email: "mpapad@hua.gr", FirstName: "Μαρία", LastName: "Παπαδοπούλου"}
	if err := db.SaveProfessor(ctx, professor); err != nil {
		t.Fatalf("failed to seed professor: %v", err)
	}

	// A warm cache short-circuits before any network access, so the nil
	// client and URL cache are never touched.
	stats, err := Run(ctx, db, nil, nil, logger.New("error"), Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := stats.Professors.Load(); got != 0 {
		t.Errorf("skipped run reported %d professors", got)
	}
}
