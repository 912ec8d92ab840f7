// Package stubsvc holds the static payloads of the placeholder services
// (story, art, notification, trending, remix). They carry no state and exist
// so the mesh runs end to end.
package stubsvc

type StoryResult struct {
	Story  string `json:"story"`
	Mood   string `json:"mood"`
	Length string `json:"length"`
	Status string `json:"status"`
}

type ArtResult struct {
	ImageURL string `json:"image_url"`
	Style    string `json:"style"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

type Notification struct {
	Message string `json:"message"`
	To      string `json:"to"`
}

type Trending struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Data    []any  `json:"data"`
}

type RemixResult struct {
	NewID      *int64 `json:"new_id"`
	OriginalID int64  `json:"original_id"`
	Status     string `json:"status"`
	Style      string `json:"style"`
	Message    string `json:"message"`
}

const statusAvailable = "service_available"

func Story() StoryResult {
	return StoryResult{
		Story:  "Story generation service is ready. Connect to AI service for story generation.",
		Mood:   "ready",
		Length: "placeholder",
		Status: statusAvailable,
	}
}

func Art() ArtResult {
	return ArtResult{
		ImageURL: "placeholder://art-generation-ready",
		Style:    "ready",
		Status:   statusAvailable,
		Message:  "Art generation service is ready. Connect to AI service for art generation.",
	}
}

// Notify pretends to notify user; an empty user is "anonymous".
func Notify(user string) Notification {
	if user == "" {
		user = "anonymous"
	}
	return Notification{Message: "Mock notification sent!", To: user}
}

func TrendingNow() Trending {
	return Trending{
		Message: "Trending service is ready. Connect to analytics engine for trending data.",
		Status:  statusAvailable,
		Data:    []any{},
	}
}

func Remix(originalID int64) RemixResult {
	return RemixResult{
		OriginalID: originalID,
		Status:     statusAvailable,
		Style:      "ready",
		Message:    "Remix service is ready. Connect to processing engine for dream remixing.",
	}
}
