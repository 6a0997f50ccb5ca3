package llm

import "context"

// Source is a grounding citation returned alongside a turn payload.
type Source struct {
	URI   string
	Title string
}

// TurnResponse is the raw service reply for one tour message: free text
// (usually a JSON payload, possibly fenced) plus any grounding sources.
type TurnResponse struct {
	Text    string
	Sources []Source
}

// TourConversation is a stateful content-generation session. Messages sent
// through it share one conversational context on the service side.
type TourConversation interface {
	Send(ctx context.Context, message string) (*TurnResponse, error)
}

// TourService is the boundary to the generative content service.
type TourService interface {
	// StartTour establishes a conversational context for one play-through.
	StartTour(ctx context.Context) (TourConversation, error)

	// GenerateBridge produces a personalized transition sentence from the
	// user's reflection, single-shot and stateless relative to the tour.
	GenerateBridge(ctx context.Context, userText, bridgeContext string) (string, error)
}
