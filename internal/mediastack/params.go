package mediastack

import (
	"net/url"
	"strconv"
)

// Params is one page worth of query parameters for the news endpoint.
// Zero values mean "not set" and fall through to the configured defaults.
type Params struct {
	Categories string `json:"categories,omitempty"`
	Sources    string `json:"sources,omitempty"`
	Countries  string `json:"countries,omitempty"`
	Languages  string `json:"languages,omitempty"`
	Sort       string `json:"sort,omitempty"`
	Date       string `json:"date,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// Merge overlays p on top of defaults; caller-supplied values win.
func (p Params) Merge(defaults Params) Params {
	out := defaults
	if p.Categories != "" {
		out.Categories = p.Categories
	}
	if p.Sources != "" {
		out.Sources = p.Sources
	}
	if p.Countries != "" {
		out.Countries = p.Countries
	}
	if p.Languages != "" {
		out.Languages = p.Languages
	}
	if p.Sort != "" {
		out.Sort = p.Sort
	}
	if p.Date != "" {
		out.Date = p.Date
	}
	if p.Limit > 0 {
		out.Limit = p.Limit
	}
	if p.Offset > 0 {
		out.Offset = p.Offset
	}
	return out
}

// Values renders the non-empty parameters as a query string, without the
// access key.
func (p Params) Values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("categories", p.Categories)
	set("sources", p.Sources)
	set("countries", p.Countries)
	set("languages", p.Languages)
	set("sort", p.Sort)
	set("date", p.Date)
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	return v
}

// Map is the loggable form of the parameters for the run log.
func (p Params) Map() map[string]string {
	m := make(map[string]string)
	for key, vals := range p.Values() {
		m[key] = vals[0]
	}
	return m
}

// ParamsFromMap rebuilds Params from a stored parameter map, e.g. a fetch
// schedule row.
func ParamsFromMap(m map[string]string) Params {
	var p Params
	p.Categories = m["categories"]
	p.Sources = m["sources"]
	p.Countries = m["countries"]
	p.Languages = m["languages"]
	p.Sort = m["sort"]
	p.Date = m["date"]
	if n, err := strconv.Atoi(m["limit"]); err == nil {
		p.Limit = n
	}
	if n, err := strconv.Atoi(m["offset"]); err == nil {
		p.Offset = n
	}
	return p
}
