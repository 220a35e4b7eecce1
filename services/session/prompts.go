package session

import (
	"fmt"
	"strings"

	"calibook/models"
)

// Reply is the outbound message the transport adapter delivers to the client.
// The machine never talks to a socket itself.
type Reply struct {
	Text     string `json:"text"`
	Terminal bool   `json:"terminal"`
	// Code is set when this reply recovered from a stale mapping or an
	// expired session; empty on the ordinary path.
	Code string `json:"code,omitempty"`
}

func promptCategory() string {
	return "Hi! What kind of appointment would you like?\n1. private\n2. outcall\n(reply with the number or name; type 'cancel' anytime)"
}

func promptDuration(durations []int) string {
	if len(durations) == 0 {
		return "How long should the appointment be, in minutes?"
	}
	opts := make([]string, len(durations))
	for i, d := range durations {
		opts[i] = fmt.Sprintf("%d min", d)
	}
	return fmt.Sprintf("How long should the appointment be? Available: %s", strings.Join(opts, ", "))
}

func promptExtras(extras []models.Extra) string {
	if len(extras) == 0 {
		return "Any extras? Reply 'none' to continue."
	}
	var b strings.Builder
	b.WriteString("Any extras? Reply with names separated by commas, or 'none':\n")
	for _, e := range extras {
		fmt.Fprintf(&b, "- %s (+%s)\n", e.Name, formatMinor(e.SurchargeMinor))
	}
	return strings.TrimRight(b.String(), "\n")
}

func promptWindows(offered []models.OfferedWindow) string {
	var b strings.Builder
	b.WriteString("Here are the next available times:\n")
	for _, w := range offered {
		fmt.Fprintf(&b, "%d. %s %s\n", w.Ordinal, w.Start.Format("Mon 02 Jan"), w.Start.Format("15:04"))
	}
	b.WriteString("Reply with the number of the time you want.")
	return b.String()
}

func promptConfirmation(w models.OfferedWindow, totalMinor int64) string {
	return fmt.Sprintf("Book %s %s for %s? Reply 'yes' to confirm or 'no' to pick another time.",
		w.Start.Format("Mon 02 Jan"), w.Start.Format("15:04"), formatMinor(totalMinor))
}

func formatMinor(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
