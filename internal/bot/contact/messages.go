package contact

// User-facing Greek strings for the contact module.
const (
	noContactsMessage = "Δεν υπάρχουν στοιχεία επικοινωνίας στη βάση."
	noMatchFormat     = "Δεν βρήκα στοιχείο επικοινωνίας για «%s»."
	noMatchMessage    = "Δεν βρήκα αυτό το στοιχείο επικοινωνίας."
	contactsHeader    = "Επικοινωνία με το Τμήμα:"

	emergencyText = "Τηλέφωνα έκτακτης ανάγκης:\n" +
		"• Ευρωπαϊκός αριθμός έκτακτης ανάγκης: 112\n" +
		"• Αστυνομία: 100\n" +
		"• ΕΚΑΒ: 166\n" +
		"• Πυροσβεστική: 199\n" +
		"• Φύλακας Πανεπιστημίου: 210-9549105"
)
