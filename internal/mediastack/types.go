package mediastack

// RawArticle is one news entry exactly as the API returns it. Everything
// except url, title and published_at may be empty.
type RawArticle struct {
	ID          string `json:"id,omitempty"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	Language    string `json:"language"`
	Country     string `json:"country"`
	PublishedAt string `json:"published_at"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
	Total  int `json:"total"`
}

// Batch is the decoded result of one successful fetch.
type Batch struct {
	Articles   []RawArticle
	Pagination Pagination
}

type apiErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type newsResponse struct {
	Pagination Pagination       `json:"pagination"`
	Data       []RawArticle     `json:"data"`
	Error      *apiErrorPayload `json:"error"`
}
