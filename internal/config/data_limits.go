// Package config provides data availability constants and the shared
// user-facing messages that explain them.
//
// Everything the bot answers comes from scraping dit.hua.gr, so the data
// is only as complete as the public pages: some staff entries publish no
// email, opening hours exist only for a few student services, and course
// pages list at most two instructors. The messages below keep that
// wording consistent across modules.
package config

// Scraped data placeholders
const (
	// UnsupportedFieldValue is stored for fields the source pages do not
	// publish. Presentation code must treat it the same as an empty value.
	UnsupportedFieldValue = "Δεν υποστηρίζεται"

	// SyntheticEmailDomain marks placeholder addresses generated for staff
	// whose page publishes no email. Synthetic addresses are usable as
	// stable record keys but must never be shown as contact info.
	SyntheticEmailDomain = "@synthetic.hua.gr"
)

// Shared user-facing messages (Greek, matching the bot's audience).
const (
	// FallbackMessage is sent when no handler recognizes the question.
	FallbackMessage = "Δεν είμαι σίγουρος για αυτό. Πες μου π.χ. «Καθηγητές», «Email Βαρλάμης» ή «Που είναι η βιβλιοθήκη»."

	// NotProvidedBySiteMessage is shown in place of a field the source
	// pages leave blank (hours, locations, emails).
	NotProvidedBySiteMessage = "Δεν δίνεται από τον ιστότοπο."

	// SnapshotUnavailableMessage is sent when storage cannot be read.
	SnapshotUnavailableMessage = "Κάτι πήγε στραβά με τα δεδομένα μου. Δοκίμασε ξανά σε λίγο."

	// RateLimitedMessage is sent when a sender exceeds the per-user limit.
	RateLimitedMessage = "Μου στέλνεις πολύ γρήγορα! Περίμενε λίγα δευτερόλεπτα και δοκίμασε ξανά."

	// TryAgainSuffix closes messages for transient page-check failures.
	TryAgainSuffix = "Δοκίμασε ξανά ή ρώτα για άλλο μάθημα."
)
