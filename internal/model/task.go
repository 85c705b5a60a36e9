package model

type Task struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// ListQuery is the normalized shape of a list request. Done and Search are
// optional filters; a nil Done or empty Search means no filter on that field.
type ListQuery struct {
	Limit  int
	Offset int
	Done   *bool
	Search string
	Sort   string // id | title | done
	Order  string // asc | desc
}

// ListResult carries one page of tasks together with the count of all tasks
// matching the query's filters before pagination.
type ListResult struct {
	Items []Task `json:"items"`
	Total int    `json:"total"`
}
