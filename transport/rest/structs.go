package rest

type createGameRequest struct {
	Mode         string `json:"mode"`
	AIDifficulty string `json:"ai_difficulty,omitempty"`
}

// moveRequest - row and col are pointers so that an empty body can
// trigger resolution of a pending AI turn.
type moveRequest struct {
	Row *int `json:"row,omitempty"`
	Col *int `json:"col,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
