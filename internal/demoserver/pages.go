package demoserver

// PageVersion is one revision of a page: the links it carries and the API
// calls its script makes once loaded.
type PageVersion struct {
	Title string
	Links []string
	// Fetch paths are requested with fetch(), XHR paths with XMLHttpRequest.
	Fetch []string
	XHR   []string
	// Assets are loaded as images and never count as API calls.
	Assets []string
}

// PageDefinition holds all versions of a single page.
type PageDefinition struct {
	Path        string
	Description string
	Versions    map[int]PageVersion
}

var siteNav = []string{"/", "/statistics", "/statistics/population", "/releases", "/about"}

// GetAllPages returns all demo page definitions.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		{
			Path:        "/",
			Description: "Landing page with the headline indicators",
			Versions: map[int]PageVersion{
				1: {
					Title:  "Home",
					Links:  siteNav,
					Fetch:  []string{"/api/summary", "/api/indicators?lang=en"},
					XHR:    []string{"/api/releases/latest"},
					Assets: []string{"/static/logo.png"},
				},
				2: {
					Title:  "Home",
					Links:  append(append([]string{}, siteNav...), "/dashboard"),
					Fetch:  []string{"/api/summary", "/api/indicators?lang=en", "/api/v2/highlights"},
					Assets: []string{"/static/logo.png"},
				},
			},
		},
		{
			Path:        "/statistics",
			Description: "Catalogue of published datasets",
			Versions: map[int]PageVersion{
				1: {
					Title: "Statistics",
					Links: append(append([]string{}, siteNav...), "/statistics/population", "/static/catalogue.pdf"),
					Fetch: []string{"/api/catalogue"},
				},
				2: {
					Title: "Statistics",
					Links: append(append([]string{}, siteNav...), "/statistics/population", "/statistics/trade"),
					Fetch: []string{"/api/v2/catalogue?page=1"},
					XHR:   []string{"/api/v2/catalogue/filters"},
				},
			},
		},
		{
			Path:        "/statistics/population",
			Description: "Population dashboard",
			Versions: map[int]PageVersion{
				1: {
					Title: "Population",
					Links: siteNav,
					Fetch: []string{"/api/data/population?state=all", "/api/summary"},
					XHR:   []string{"/api/data/population/chart"},
				},
			},
		},
		{
			Path:        "/statistics/trade",
			Description: "Trade dashboard, linked from version 2 of the catalogue",
			Versions: map[int]PageVersion{
				1: {
					Title: "Trade",
					Links: siteNav,
					Fetch: []string{"/api/data/trade"},
				},
			},
		},
		{
			Path:        "/releases",
			Description: "Release calendar",
			Versions: map[int]PageVersion{
				1: {
					Title: "Releases",
					Links: siteNav,
					XHR:   []string{"/api/releases?year=2024", "/api/releases/latest"},
				},
			},
		},
		{
			Path:        "/dashboard",
			Description: "Dashboard added in version 2 of the home page",
			Versions: map[int]PageVersion{
				1: {
					Title: "Dashboard",
					Links: siteNav,
					Fetch: []string{"/api/v2/highlights", "/api/v2/dashboard/widgets"},
				},
			},
		},
		{
			Path:        "/about",
			Description: "Static page without API calls",
			Versions: map[int]PageVersion{
				1: {
					Title: "About",
					Links: siteNav,
				},
			},
		},
	}
}
