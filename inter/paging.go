package inter

// PageRequest is a 1-indexed page of a listing.
type PageRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Page is the metadata returned with a listing.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Normalize clamps the request: page defaults to 1, limit to def and is
// capped at max.
func (r PageRequest) Normalize(def, max int) PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = def
	}
	if r.Limit > max {
		r.Limit = max
	}
	return r
}

// Bounds returns the half-open index range [start,end) of the requested page
// in a listing of total items, plus the page metadata.
func (r PageRequest) Bounds(total int) (start, end int, page Page) {
	page = Page{Page: r.Page, Limit: r.Limit, Total: total}
	if r.Limit > 0 {
		page.Pages = (total + r.Limit - 1) / r.Limit
	}
	switch {
	case r.Page < 1 || r.Limit < 1:
		start = 0
	case r.Page-1 > total/r.Limit:
		start = total
	default:
		start = (r.Page - 1) * r.Limit
		if start > total {
			start = total
		}
	}
	end = start
	if r.Limit > 0 {
		end = total
		if r.Limit < total-start {
			end = start + r.Limit
		}
	}
	return start, end, page
}
