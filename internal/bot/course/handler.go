// Package course answers catalog queries: course details by code,
// semester listings and free-text search over the study guide, BM25
// first with a LIKE fallback.
package course

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/huahelper/hua-messengerbot-go/internal/bot"
	"github.com/huahelper/hua-messengerbot-go/internal/config"
	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/messenger"
	"github.com/huahelper/hua-messengerbot-go/internal/messengerutil"
	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
	"github.com/huahelper/hua-messengerbot-go/internal/resolve"
	"github.com/huahelper/hua-messengerbot-go/internal/search"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
)

const moduleName = "course"

// maxListItems caps text listings (catalog and semester views).
const maxListItems = 20

// maxSearchResults caps the free-text search carousel.
const maxSearchResults = 5

var (
	courseKeywords = []string{
		"μαθημα", "μαθηματα", "course", "courses", "βρες", "εξαμηνο",
	}
	courseRegex = bot.BuildKeywordRegex(courseKeywords)

	// Course codes look like ΠΛ0305 or CS101. Matching runs on
	// normalized (lowercased, accent-folded) text.
	codeRegex     = regexp.MustCompile(`^[α-ωa-z]{1,4}[0-9]{2,4}$`)
	codeScanRegex = regexp.MustCompile(`[α-ωa-z]{1,4}[0-9]{2,4}`)

	semesterRegex = regexp.MustCompile(`[0-9]{1,2}`)
)

// Handler implements bot.Handler for the course catalog.
type Handler struct {
	db      storage.CourseRepository
	index   *search.CourseIndex
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewHandler creates a course handler. The search index may be nil;
// free-text queries then go straight to the LIKE fallback.
func NewHandler(db storage.CourseRepository, index *search.CourseIndex, logger *logger.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		db:      db,
		index:   index,
		logger:  logger,
		metrics: metrics,
	}
}

// ModuleName returns the module identifier.
func (h *Handler) ModuleName() string {
	return moduleName
}

// CanHandle reports whether the text starts with a course keyword or is
// a bare course code.
func (h *Handler) CanHandle(text string) bool {
	if bot.MatchKeyword(courseRegex, text) != "" {
		return true
	}
	return codeRegex.MatchString(resolve.Normalize(strings.TrimSpace(text)))
}

// HandleMessage routes a course query: bare codes and "μάθημα <code>"
// show details, "μαθήματα Nου εξαμήνου" lists a semester, "βρες <θέμα>"
// searches, bare "μαθήματα" lists the catalog.
func (h *Handler) HandleMessage(ctx context.Context, text string) ([]messenger.Message, error) {
	log := h.logger.WithModule(moduleName)
	norm := resolve.Normalize(strings.TrimSpace(text))

	if codeRegex.MatchString(norm) {
		return h.courseDetails(ctx, norm)
	}

	keyword := bot.MatchKeyword(courseRegex, text)
	if keyword == "" {
		return nil, nil
	}
	term := bot.ExtractSearchTerm(text, keyword)
	log.Infof("Course query: keyword=%q term=%q", keyword, term)

	if keyword == "βρες" {
		if term == "" {
			return []messenger.Message{messengerutil.NewTextMessage(askCodeMessage)}, nil
		}
		return h.smartSearch(ctx, term)
	}

	if keyword == "εξαμηνο" {
		if sem, ok := parseSemester(term); ok {
			return h.listSemester(ctx, sem)
		}
		return []messenger.Message{messengerutil.NewTextMessage(askSemesterMessage)}, nil
	}
	if sem, ok := extractSemester(term); ok {
		return h.listSemester(ctx, sem)
	}
	if code := codeScanRegex.FindString(term); code != "" {
		return h.courseDetails(ctx, code)
	}
	if term != "" {
		return h.smartSearch(ctx, term)
	}
	return h.listCatalog(ctx)
}

// CanHandlePostback reports whether the payload carries the "course$"
// prefix.
func (h *Handler) CanHandlePostback(data string) bool {
	return bot.OwnsPostback(moduleName, data)
}

// HandlePostback answers carousel buttons. Payload formats:
// "course$detail$<code>" and "course$semester$<n>".
func (h *Handler) HandlePostback(ctx context.Context, data string) ([]messenger.Message, error) {
	pb, err := bot.ParsePostback(data)
	if err != nil {
		return nil, err
	}

	switch pb.Action {
	case "semester":
		sem, convErr := strconv.Atoi(pb.Param(0))
		if convErr != nil {
			return []messenger.Message{messengerutil.NewTextMessage(askSemesterMessage)}, nil
		}
		return h.listSemester(ctx, sem)
	default:
		code := resolve.Normalize(pb.Param(0))
		if code == "" {
			return []messenger.Message{messengerutil.NewTextMessage(askCodeMessage)}, nil
		}
		return h.courseDetails(ctx, code)
	}
}

// courseDetails answers a single course lookup by normalized code.
func (h *Handler) courseDetails(ctx context.Context, code string) ([]messenger.Message, error) {
	course, err := h.db.GetCourseByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	// Absent and TTL-expired codes both come back (nil, nil).
	if course == nil {
		return []messenger.Message{messengerutil.NewTextMessage(
			fmt.Sprintf(notFoundFormat, strings.ToUpper(code)),
		)}, nil
	}

	text := messengerutil.NewTextMessage(detailText(*course))
	if !hasValue(course.URL) {
		return []messenger.Message{text}, nil
	}

	card := courseCard(*course)
	return []messenger.Message{messengerutil.NewCarousel([]messenger.Element{card}), text}, nil
}

// listSemester lists the courses offered in the given semester.
func (h *Handler) listSemester(ctx context.Context, sem int) ([]messenger.Message, error) {
	courses, err := h.db.GetAllCourses(ctx)
	if err != nil {
		return nil, err
	}

	semText := strconv.Itoa(sem)
	var items []string
	for _, c := range courses {
		if strings.TrimSpace(c.Semester1) != semText && strings.TrimSpace(c.Semester2) != semText {
			continue
		}
		if len(items) == maxListItems {
			break
		}
		items = append(items, listLine(c))
	}
	if len(items) == 0 {
		return []messenger.Message{messengerutil.NewTextMessage(
			fmt.Sprintf(noSemesterFormat, sem),
		)}, nil
	}

	header := fmt.Sprintf("Μαθήματα %dου εξαμήνου:\n• ", sem)
	return messengerutil.ChunkText(header + strings.Join(items, "\n• ")), nil
}

// listCatalog lists the whole catalog as text, capped.
func (h *Handler) listCatalog(ctx context.Context) ([]messenger.Message, error) {
	courses, err := h.db.GetAllCourses(ctx)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return []messenger.Message{messengerutil.NewTextMessage(emptyCatalogMessage)}, nil
	}

	items := make([]string, 0, maxListItems)
	for _, c := range courses {
		if len(items) == maxListItems {
			break
		}
		items = append(items, fmt.Sprintf("%s — %s", strings.ToUpper(c.CourseCode), c.CourseName))
	}

	text := "Μαθήματα:\n• " + strings.Join(items, "\n• ")
	if len(courses) > maxListItems {
		text += fmt.Sprintf("\n…και %d ακόμη. Ρώτα ανά εξάμηνο ή με «βρες <θέμα>».", len(courses)-maxListItems)
	}
	return messengerutil.ChunkText(text), nil
}

// smartSearch runs the BM25 index over the catalog and falls back to a
// LIKE search on the course name when the index is empty or fails.
func (h *Handler) smartSearch(ctx context.Context, term string) ([]messenger.Message, error) {
	log := h.logger.WithModule(moduleName)

	var hits []storage.Course
	if h.index.IsEnabled() {
		results, err := h.index.Search(term, maxSearchResults)
		if err != nil {
			log.WithError(err).Warnf("Course index search failed for %q, using LIKE fallback", term)
		} else {
			for _, r := range results {
				hits = append(hits, r.Course)
			}
		}
	}

	if len(hits) == 0 {
		found, err := h.db.SearchCoursesByName(ctx, term)
		if err != nil {
			return nil, err
		}
		if len(found) > maxSearchResults {
			found = found[:maxSearchResults]
		}
		hits = found
	}

	if len(hits) == 0 {
		return []messenger.Message{messengerutil.NewTextMessage(
			fmt.Sprintf(noSearchHitsFormat, term),
		)}, nil
	}
	if len(hits) == 1 {
		return h.courseDetails(ctx, hits[0].CourseCode)
	}

	elements := make([]messenger.Element, len(hits))
	for i, c := range hits {
		elements[i] = courseCard(c)
	}
	return []messenger.Message{messengerutil.NewCarousel(elements)}, nil
}

// courseCard builds the carousel element for one course.
func courseCard(c storage.Course) messenger.Element {
	buttons := []messenger.Button{
		messengerutil.NewPostbackButton(detailButtonTitle, bot.EncodePostback(moduleName, "detail", c.CourseCode)),
	}
	if hasValue(c.URL) {
		buttons = append(buttons, messengerutil.NewURLButton(coursePageButtonTitle, c.URL))
	}

	title := fmt.Sprintf("%s — %s", strings.ToUpper(c.CourseCode), c.CourseName)
	return messengerutil.NewElement(title, cardSubtitle(c), "", buttons...)
}

// cardSubtitle joins type, ECTS and semester into the card subtitle.
func cardSubtitle(c storage.Course) string {
	var bits []string
	if hasValue(c.Type) {
		bits = append(bits, c.Type)
	}
	if hasValue(c.ECTSPoints) {
		bits = append(bits, c.ECTSPoints+" ECTS")
	}
	if sems := semesters(c); sems != "" {
		bits = append(bits, "Εξάμηνο "+sems)
	}
	return strings.Join(bits, " · ")
}

// detailText renders the full course description the way the study
// guide presents it.
func detailText(c storage.Course) string {
	sems := semesters(c)
	if sems == "" {
		sems = "–"
	}

	msg := fmt.Sprintf("%s – %s. ECTS: %s. Τύπος: %s. Εξάμηνο: %s. Διδάσκοντες: %s.",
		strings.ToUpper(c.CourseCode), c.CourseName,
		orDash(c.ECTSPoints), orDash(c.Type), sems, professorsLine(c))
	if hasValue(c.URL) {
		msg += " Σελίδα μαθήματος: " + c.URL
	}
	return msg
}

// listLine renders one listing row.
func listLine(c storage.Course) string {
	return fmt.Sprintf("%s: %s (%s, %s ECTS)",
		strings.ToUpper(c.CourseCode), c.CourseName, orDash(c.Type), orDash(c.ECTSPoints))
}

// professorsLine joins the assigned professors, skipping placeholders.
func professorsLine(c storage.Course) string {
	var profs []string
	for _, p := range []string{c.Professor1, c.Professor2} {
		if hasValue(p) {
			profs = append(profs, p)
		}
	}
	if len(profs) == 0 {
		return "–"
	}
	return strings.Join(profs, ", ")
}

// semesters joins the semester fields, skipping blanks.
func semesters(c storage.Course) string {
	var sems []string
	for _, s := range []string{c.Semester1, c.Semester2} {
		if s = strings.TrimSpace(s); s != "" {
			sems = append(sems, s)
		}
	}
	return strings.Join(sems, ", ")
}

// extractSemester pulls a semester number out of phrases like "3ου
// εξαμηνου".
func extractSemester(term string) (int, bool) {
	if !strings.Contains(term, "εξαμην") {
		return 0, false
	}
	return parseSemester(term)
}

// parseSemester finds the first plausible semester number in the term.
func parseSemester(term string) (int, bool) {
	m := semesterRegex.FindString(term)
	if m == "" {
		return 0, false
	}
	sem, err := strconv.Atoi(m)
	if err != nil || sem < 1 || sem > 12 {
		return 0, false
	}
	return sem, true
}

func hasValue(v string) bool {
	return v != "" && v != config.UnsupportedFieldValue
}

func orDash(v string) string {
	if !hasValue(v) {
		return "–"
	}
	return v
}
