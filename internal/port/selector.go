package port

import "context"

// Selection is what the user decided after seeing the proposals.
type Selection struct {
	Cases          []string
	ReferenceFiles []string
	Requirements   string
}

// SelectionRequest carries the proposals and prefilled values shown to the user.
type SelectionRequest struct {
	Cases          []string
	ReferenceFiles []string
	Requirements   string
}

// Selector lets the user pick test cases, reference files and requirements.
type Selector interface {
	Select(ctx context.Context, req SelectionRequest) (Selection, error)
}
