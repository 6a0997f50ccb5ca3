package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/martapons/campustour-be/internal/delivery/http/entity"
	"github.com/martapons/campustour-be/internal/pkg/llm"
	"github.com/martapons/campustour-be/internal/pkg/mapper"
)

type turnPayloadJSON struct {
	LocationName    string   `json:"locationName"`
	LocationType    string   `json:"locationType"`
	EnglishQuestion string   `json:"englishQuestion"`
	BridgeContext   string   `json:"bridgeContext"`
	GrammarQuestion string   `json:"grammarQuestion"`
	Options         []string `json:"options"`
	CorrectAnswer   string   `json:"correctAnswer"`
	Explanation     string   `json:"explanation"`
	IsFinal         bool     `json:"isFinal"`
}

// stripCodeFence removes an incidental markdown fence around the payload.
// The model is told to return bare JSON but grounded responses still arrive
// fenced often enough that this has to be tolerated.
func stripCodeFence(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// parseChallenge turns a raw service reply into a Challenge. A reply that
// fails structural parsing is a service failure, handled by the caller's
// placeholder substitution, never a crash.
func parseChallenge(text string) (*entity.Challenge, error) {
	clean := stripCodeFence(text)

	var payload turnPayloadJSON
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return nil, fmt.Errorf("service output is not valid json: %w", err)
	}
	if len(payload.Options) == 0 {
		return nil, fmt.Errorf("service output has no answer options")
	}
	if payload.GrammarQuestion == "" || payload.EnglishQuestion == "" {
		return nil, fmt.Errorf("service output missing question fields")
	}

	return &entity.Challenge{
		LocationName:    payload.LocationName,
		LocationType:    payload.LocationType,
		Illustration:    mapper.IllustrationForCategory(payload.LocationType),
		EnglishQuestion: payload.EnglishQuestion,
		BridgeContext:   payload.BridgeContext,
		GrammarQuestion: payload.GrammarQuestion,
		Options:         payload.Options,
		CorrectAnswer:   payload.CorrectAnswer,
		Explanation:     payload.Explanation,
		IsFinal:         payload.IsFinal,
	}, nil
}

// errorChallenge is the well-formed placeholder installed when a next-turn
// fetch fails, so an active session always presents an answerable challenge.
func errorChallenge() *entity.Challenge {
	const acknowledge = "Entendido, sigo adelante"
	return &entity.Challenge{
		LocationName:    "Parada no disponible",
		LocationType:    "error",
		Illustration:    mapper.IllustrationForCategory("error"),
		EnglishQuestion: "The guide lost the connection at this stop. How would you like to continue?",
		BridgeContext:   "The tour guide could not reach this stop.",
		GrammarQuestion: "Para continuar, elige la única opción disponible.",
		Options:         []string{acknowledge},
		CorrectAnswer:   acknowledge,
		Explanation:     "",
		IsFinal:         false,
	}
}

func toSourceRefs(sources []llm.Source) []entity.SourceReference {
	if len(sources) == 0 {
		return nil
	}
	refs := make([]entity.SourceReference, 0, len(sources))
	for _, s := range sources {
		refs = append(refs, entity.SourceReference{URI: s.URI, Title: s.Title})
	}
	return refs
}
