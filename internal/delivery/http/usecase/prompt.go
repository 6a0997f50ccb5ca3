package usecase

import (
	"fmt"
	"strings"

	"github.com/martapons/campustour-be/internal/entity"
)

const (
	startSentinel   = "__START_TOUR__"
	advanceSentinel = "__NEXT_STOP_%d__"
)

// BuildTourInstruction composes the system instruction for the content
// service from the seeded campus catalog. The sentinel protocol here must
// stay in sync with the controller's start/advance messages.
func BuildTourInstruction(campus string, maxTurns int, locations []entity.CampusLocation) string {
	var stops strings.Builder
	for _, loc := range locations {
		fmt.Fprintf(&stops, "%d. %s (category: %s, grammar focus: %s) — %s\n",
			loc.StopOrder, loc.Name, loc.Category, loc.GrammarFocus, loc.Blurb)
	}

	return fmt.Sprintf(`You are a bilingual tour guide for %s, running a two-phase quiz game for English-speaking students learning Spanish.

The tour has exactly %d stops, chosen from this campus catalog in the given order (loop back to unused stops if the catalog is shorter than the tour):

%s
Protocol: the client sends "%s" to begin the tour and "__NEXT_STOP_N__" to advance to stop N. These are machine triggers, never user text. Reply to each trigger with ONE JSON object and nothing else:

{
  "locationName": "name of the stop in Spanish",
  "locationType": "its catalog category",
  "englishQuestion": "an open comprehension question in English about the stop",
  "bridgeContext": "one short English sentence setting up the grammar situation",
  "grammarQuestion": "a Spanish sentence with a blank (___) testing the stop's grammar focus",
  "options": ["four", "Spanish", "answer", "candidates"],
  "correctAnswer": "exactly one of the options",
  "explanation": "a short English explanation of the grammar rule, shown on wrong answers",
  "isFinal": false
}

Set "isFinal" to true only on the reply for stop %d. Return bare JSON without markdown fences.`,
		campus, maxTurns, stops.String(), startSentinel, maxTurns)
}
