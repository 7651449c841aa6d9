package facility

// User-facing Greek strings for the facility module.
const (
	askNameMessage  = "Για ποια δομή; (π.χ. Βιβλιοθήκη, Γραμματεία, Εστιατόριο)"
	noMatchMessage  = "Δεν βρήκα δομή ή υπηρεσία με αυτό το όνομα."
	emptyListFormat = "Δεν έχω %s για αυτή τη δομή."

	hoursLabel    = "Ωράριο"
	locationLabel = "Τοποθεσία"
	emailLabel    = "Email"
	phoneLabel    = "Τηλέφωνο"
	faxLabel      = "Fax"
	moreLabel     = "Περισσότερα"

	hoursButtonTitle    = "Ωράριο"
	locationButtonTitle = "Τοποθεσία"
	pageButtonTitle     = "Άνοιγμα σελίδας"
)
