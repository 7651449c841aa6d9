package rating

// User-facing Greek strings for the rating module.
const (
	thanksFormat        = "Ευχαριστώ για την αξιολόγηση! 🙏 (%d/5)"
	invalidScoreMsg     = "Παρακαλώ επίλεξε μια από τις διαθέσιμες αξιολογήσεις."
	unknownProfessorMsg = "Δεν βρήκα τον καθηγητή για αυτή την αξιολόγηση."
	tooManyRatingsMsg   = "Έχεις στείλει πολλές αξιολογήσεις. Δοκίμασε ξανά αργότερα."
)
