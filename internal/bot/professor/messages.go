package professor

// User-facing Greek strings for the professor module.
const (
	noMatchMessage   = "Δεν βρήκα καθηγητή με αυτό το όνομα."
	emptyListMessage = "Δεν υπάρχουν καταχωρημένοι καθηγητές στη βάση."
	askNameMessage   = "Για ποιον/ποια καθηγητή; Γράψε π.χ. «Email Βαρλάμης»."
	noWebsiteFormat  = "Δεν υπάρχει διαθέσιμη ιστοσελίδα για %s."
	listHintMessage  = "…γράψε «στοιχεία για τον <όνομα>» για περισσότερες πληροφορίες."
	ratingThanksMsg  = "Ευχαριστώ για την αξιολόγηση! 🙏"
	ratingPromptMsg  = "Πώς σου φάνηκε η απάντηση;"

	emailLabel   = "Email"
	phoneLabel   = "Τηλέφωνο"
	officeLabel  = "Γραφείο"
	websiteLabel = "Ιστοσελίδα"

	detailButtonTitle = "Λεπτομέρειες"
	pageButtonTitle   = "Άνοιγμα σελίδας"
	emailButtonTitle  = "Email"
)

// article returns the accusative Greek article matching the
// professor's recorded gender; the scraper stores "male"/"female" from
// the rank wording (Καθηγητής vs Καθηγήτρια).
func article(gender string) string {
	if gender == "female" {
		return "την"
	}
	return "τον"
}
