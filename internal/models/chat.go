package models

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation entry. Sessions keep them oldest-first.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ModalState is the one active modal (reviews or comparison), content pre-rendered.
type ModalState struct {
	IsOpen    bool   `json:"isOpen"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	IsLoading bool   `json:"isLoading"`
}

// PostMessageRequest is the payload for posting a user message.
type PostMessageRequest struct {
	Text string `json:"text"`
}

// PostMessageResponse acknowledges an accepted turn.
type PostMessageResponse struct {
	Generation int64 `json:"generation"`
}

// UpdateFiltersRequest is a partial filter update; nil fields are left untouched.
type UpdateFiltersRequest struct {
	Brand    *string             `json:"brand"`
	SortBy   *string             `json:"sortBy"`
	Advanced *map[string]float64 `json:"advanced"`
}

// ToggleComparisonRequest adds or removes a product from the comparison selection.
type ToggleComparisonRequest struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// ReviewsRequest asks for a review summary modal for one product.
type ReviewsRequest struct {
	ProductName string `json:"productName"`
}
