package mapper

import (
	apiEntity "github.com/martapons/campustour-be/internal/delivery/http/entity"
	dbEntity "github.com/martapons/campustour-be/internal/entity"
)

// illustrations maps a location category to the display resource key the
// client uses for the stop's artwork. Pure lookup, no game logic.
var illustrations = map[string]string{
	"landmark":       "illustrations/gate.svg",
	"library":        "illustrations/library.svg",
	"cafeteria":      "illustrations/cafeteria.svg",
	"classroom":      "illustrations/classroom.svg",
	"lab":            "illustrations/lab.svg",
	"garden":         "illustrations/garden.svg",
	"sports":         "illustrations/sports.svg",
	"auditorium":     "illustrations/auditorium.svg",
	"administration": "illustrations/administration.svg",
	"residence":      "illustrations/residence.svg",
	"bookstore":      "illustrations/bookstore.svg",
	"transit":        "illustrations/tram.svg",
}

const defaultIllustration = "illustrations/campus.svg"

func IllustrationForCategory(category string) string {
	if key, ok := illustrations[category]; ok {
		return key
	}
	return defaultIllustration
}

// ToLocationItem converts a catalog row to its API representation.
func ToLocationItem(loc *dbEntity.CampusLocation) apiEntity.LocationItem {
	return apiEntity.LocationItem{
		Name:         loc.Name,
		Category:     loc.Category,
		GrammarFocus: loc.GrammarFocus,
		Illustration: IllustrationForCategory(loc.Category),
	}
}
