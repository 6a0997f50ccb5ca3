package database

import (
	"fmt"

	"github.com/martapons/campustour-be/internal/entity"
	"gorm.io/gorm"
)

// CampusTourData - the fixed campus configuration forced server-side. The
// tour visits these stops in StopOrder; each stop carries the grammar topic
// the content service should build its fill-in question around.
var CampusTourData = []entity.CampusLocation{
	{Slug: "entrada-principal", Name: "Entrada Principal", Category: "landmark", GrammarFocus: "ser vs estar", Blurb: "La puerta de acceso al campus, punto de encuentro habitual.", StopOrder: 1},
	{Slug: "biblioteca-central", Name: "Biblioteca Central", Category: "library", GrammarFocus: "impersonal se", Blurb: "En la biblioteca se exige silencio y se prestan libros.", StopOrder: 2},
	{Slug: "cafeteria-agora", Name: "Cafetería del Ágora", Category: "cafeteria", GrammarFocus: "gustar-type verbs", Blurb: "Aquí los estudiantes desayunan y charlan entre clases.", StopOrder: 3},
	{Slug: "aulario-norte", Name: "Aulario Norte", Category: "classroom", GrammarFocus: "present subjunctive", Blurb: "El edificio con más aulas del campus.", StopOrder: 4},
	{Slug: "laboratorio-quimica", Name: "Laboratorio de Química", Category: "lab", GrammarFocus: "formal commands", Blurb: "En el laboratorio se siguen normas de seguridad estrictas.", StopOrder: 5},
	{Slug: "jardin-botanico", Name: "Jardín Botánico", Category: "garden", GrammarFocus: "preterite vs imperfect", Blurb: "Un rincón tranquilo con especies mediterráneas.", StopOrder: 6},
	{Slug: "polideportivo", Name: "Polideportivo", Category: "sports", GrammarFocus: "por vs para", Blurb: "Pistas de baloncesto, piscina y gimnasio.", StopOrder: 7},
	{Slug: "salon-de-actos", Name: "Salón de Actos", Category: "auditorium", GrammarFocus: "future tense", Blurb: "Donde se celebran conferencias y actos de graduación.", StopOrder: 8},
	{Slug: "rectorado", Name: "Rectorado", Category: "administration", GrammarFocus: "conditional", Blurb: "La sede administrativa de la universidad.", StopOrder: 9},
	{Slug: "residencia-estudiantes", Name: "Residencia de Estudiantes", Category: "residence", GrammarFocus: "reflexive verbs", Blurb: "Hogar de muchos estudiantes durante el curso.", StopOrder: 10},
	{Slug: "libreria-campus", Name: "Librería del Campus", Category: "bookstore", GrammarFocus: "direct object pronouns", Blurb: "Se venden manuales, material de papelería y merchandising.", StopOrder: 11},
	{Slug: "parada-tranvia", Name: "Parada del Tranvía", Category: "transit", GrammarFocus: "prepositions of place", Blurb: "La salida del campus hacia el centro de la ciudad.", StopOrder: 12},
}

// SeedCampusLocations loads the tour catalog once; re-runs are no-ops.
func SeedCampusLocations(db *gorm.DB) error {
	var count int64
	db.Model(&entity.CampusLocation{}).Count(&count)
	if count > 0 {
		return nil
	}

	for _, loc := range CampusTourData {
		loc := loc
		if err := db.Create(&loc).Error; err != nil {
			return fmt.Errorf("failed to seed campus location %s: %w", loc.Slug, err)
		}
	}

	return nil
}
