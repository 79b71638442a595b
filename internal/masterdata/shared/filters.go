package shared

// ListFilters represents standard list filters for master data endpoints.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string

	IsActive   *bool
	CategoryID *int64
	SupplierID *int64
	ParentID   *int64
}
