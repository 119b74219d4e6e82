package domain

// Task is the single persisted entity: a to-do item with its text, creation
// and expected completion dates, and a lifecycle status. The ID is assigned
// by the server and treated as an opaque handle everywhere else.
type Task struct {
	ID           int64  `json:"id"`
	Text         string `json:"text"`
	CreatedDate  Date   `json:"createdDate"`
	ExpectedDate Date   `json:"expectedDate"`
	Status       Status `json:"status"`
}

// SortOrder selects the direction of a task listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DefaultSortField is the only sort field the client ever requests.
const DefaultSortField = "createdDate"

// ListQuery describes a task listing: an optional status filter plus sort
// order and field. A nil Status returns tasks in every state. An empty Field
// means DefaultSortField.
type ListQuery struct {
	Status *Status
	Order  SortOrder
	Field  string
}
