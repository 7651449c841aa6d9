package service

// User-facing Greek strings for the service module.
const (
	noServiceMessage   = "Δεν βρήκα φοιτητική υπηρεσία με αυτό το όνομα."
	noPlatformMessage  = "Δεν βρήκα πλατφόρμα με αυτό το όνομα."
	emptyServices      = "Δεν υπάρχουν υπηρεσίες στη βάση."
	emptyPlatforms     = "Δεν υπάρχουν πλατφόρμες στη βάση."
	servicesHeader     = "Φοιτητικές υπηρεσίες:"
	platformsHeader    = "Ηλεκτρονικές πλατφόρμες:"
	platformsHintMsg   = "Χρήσιμες πλατφόρμες: γράψε το όνομα μιας για λεπτομέρειες."
	openButtonTitle    = "Άνοιγμα"
	detailsButtonTitle = "Λεπτομέρειες"

	emailLabel = "Email"
	phoneLabel = "Τηλέφωνο"
	linkLabel  = "Σύνδεσμος"
	moreLabel  = "Περισσότερα"
)
