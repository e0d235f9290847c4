package shared

// Filter narrows a list query. A PageSize of 0 means no paging. Filters holds
// exact-match column conditions; repositories whitelist the keys they accept.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]interface{}
}
