package api

const requestBodyMaxSize = 256 * 1024 // 256 KiB, pasted notes included

// task create / edit request body
type taskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	DueDate     *string `json:"dueDate"`
}

// POST /api/tasks/:id/status request body
type statusRequest struct {
	Status string `json:"status"`
}

// POST /api/tasks/:id/position request body
type positionRequest struct {
	Position int `json:"position"`
}

// note create / edit request body
type noteRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// POST /api/notes/:id/ingest request body
type ingestRequest struct {
	Items []candidateItem `json:"items"`
}

type candidateItem struct {
	Title       string  `json:"title"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"dueDate"`
	Description string  `json:"description"`
}
