package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type VoteRequest struct {
	Direction string `json:"direction"`
}

type CategoryRequest struct {
	Category string `json:"category"`
}

type SearchRequest struct {
	SearchText string `json:"search_text"`
}

type SortRequest struct {
	SortKey string `json:"sort_key"`
}

type QueryStateResponse struct {
	SelectedCategory string `json:"selected_category"`
	SearchText       string `json:"search_text"`
	SortKey          string `json:"sort_key"`
}

type ItemResponse struct {
	ItemID    string `json:"item_id"`
	Kind      string `json:"kind"`
	Category  string `json:"category"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Score     int    `json:"score"`
	CreatedAt string `json:"created_at"`

	Replies    int      `json:"replies,omitempty"`
	AuthorName string   `json:"author_name,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Views      int      `json:"views,omitempty"`
	UserVoted  string   `json:"user_voted,omitempty"`

	Members  int     `json:"members,omitempty"`
	Topics   int     `json:"topics,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
	IsJoined *bool   `json:"is_joined,omitempty"`
}

type ViewResponse struct {
	Scope      string             `json:"scope"`
	State      QueryStateResponse `json:"state"`
	Categories []string           `json:"categories"`
	Items      []ItemResponse     `json:"items"`
}

type VoteResponse struct {
	ItemID    string       `json:"item_id"`
	Direction string       `json:"direction"`
	Previous  string       `json:"previous"`
	Delta     int          `json:"delta"`
	Score     int          `json:"score"`
	View      ViewResponse `json:"view"`
}

type MembershipResponse struct {
	GroupID string       `json:"group_id"`
	Joined  bool         `json:"joined"`
	View    ViewResponse `json:"view"`
}
