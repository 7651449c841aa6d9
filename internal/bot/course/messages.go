package course

// User-facing Greek strings for the course module.
const (
	askCodeMessage      = "Δώσε κωδικό μαθήματος (π.χ. ΠΛ0305) ή γράψε «βρες <θέμα>»."
	askSemesterMessage  = "Πες μου το εξάμηνο (π.χ. «Μαθήματα 3ου εξαμήνου»)."
	emptyCatalogMessage = "Δεν υπάρχουν μαθήματα στη βάση."
	notFoundFormat      = "Δεν βρήκα το μάθημα με κωδικό %s."
	noSemesterFormat    = "Δεν βρήκα μαθήματα για %dο εξάμηνο. Ίσως δεν υπάρχουν δεδομένα εξαμήνου στη βάση."
	noSearchHitsFormat  = "Δεν βρήκα μάθημα για «%s». Δοκίμασε άλλες λέξεις ή δώσε κωδικό μαθήματος."

	coursePageButtonTitle = "Σελίδα μαθήματος"
	detailButtonTitle     = "Λεπτομέρειες"
)
