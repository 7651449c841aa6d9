package usage

// Per-topic instruction sections. The full help message joins them;
// the quick-reply chips under it open one section at a time.
const (
	greetingText = "Γεια σου! 👋 Είμαι ο βοηθός του Τμήματος Πληροφορικής και Τηλεματικής του Χαροκοπείου."

	professorSection = "📚 Καθηγητές\n" +
		"Γράψε «καθηγητής Βαρλάμης» για πλήρη στοιχεία, ή πιο συγκεκριμένα «email Βαρλάμης», «τηλέφωνο Βαρλάμης», «γραφείο Βαρλάμης». Σκέτο «καθηγητές» σου δείχνει όλη τη λίστα."

	courseSection = "🎓 Μαθήματα\n" +
		"Γράψε τον κωδικό («ΠΛ0305»), «εξάμηνο 3» για τα μαθήματα ενός εξαμήνου, ή «βρες βάσεις δεδομένων» για αναζήτηση με λέξεις-κλειδιά."

	facilitySection = "🏛️ Δομές\n" +
		"Ρώτα «ωράριο βιβλιοθήκης», «πού είναι η γραμματεία» ή απλώς «βιβλιοθήκη» για όλα τα στοιχεία μιας δομής."

	serviceSection = "💻 Υπηρεσίες\n" +
		"Γράψε «υπηρεσίες» για τις φοιτητικές υπηρεσίες, «πλατφόρμες» για τις ηλεκτρονικές πλατφόρμες («eclass», «estudies»), ή «οδηγοί» για τους οδηγούς χρήσης."

	contactSection = "📞 Επικοινωνία\n" +
		"Γράψε «επικοινωνία» για τα τηλέφωνα του Τμήματος ή «έκτακτο» για αριθμούς έκτακτης ανάγκης."

	closingText = "Όποτε χαθείς, γράψε «βοήθεια» και θα ξαναδείς αυτό το μήνυμα."

	unknownTopicMessage = "Δεν έχω οδηγίες για αυτό το θέμα. Γράψε «βοήθεια» για τη λίστα."
)
