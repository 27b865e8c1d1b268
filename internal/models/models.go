package models

// Name holds the display name of a directory entry.
type Name struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// Login carries the upstream-assigned account fields we surface.
type Login struct {
	Username string `json:"username"`
}

// Picture references the avatar renditions served by the upstream generator.
type Picture struct {
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Thumbnail string `json:"thumbnail"`
}

// Street is the street part of a location.
type Street struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
}

// Location describes where a user lives.
type Location struct {
	Country  string `json:"country"`
	City     string `json:"city"`
	Street   Street `json:"street"`
	Postcode string `json:"postcode"`
}

// User is a single person record. ID is the opaque identity used for
// deduplication: two users with the same ID are the same logical person.
type User struct {
	ID          string   `json:"id"`
	Name        Name     `json:"name"`
	Login       Login    `json:"login"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Cell        string   `json:"cell"`
	Picture     Picture  `json:"picture"`
	Location    Location `json:"location"`
	Nationality string   `json:"nat"`
}

// PageInfo is the pagination metadata returned alongside each page.
type PageInfo struct {
	Seed    string `json:"seed"`
	Results int    `json:"results"`
	Page    int    `json:"page"`
	Version string `json:"version"`
}

// Page is one fetched page of users plus its metadata. Pages are consumed
// immediately by the accumulation engine and not retained beyond the merge.
type Page struct {
	Results []User   `json:"results"`
	Info    PageInfo `json:"info"`
}

// SearchEvent is one completed search as appended to the event stream.
// Timestamp is RFC3339; Duration is milliseconds.
type SearchEvent struct {
	Query     string  `json:"query"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration"`
}

// TopQuery is one ranked bucket in the aggregated statistics.
type TopQuery struct {
	Query   string  `json:"query"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Stats is the aggregate computed over the whole event stream.
type Stats struct {
	TopQueries      []TopQuery `json:"topQueries"`
	AvgTiming       float64    `json:"avgTiming"`
	HourlyCounts    []int      `json:"hourlyCounts"`
	MostPopularHour int        `json:"mostPopularHour"`
}

// Snapshot is the persisted form of Stats, stamped at write time. It fully
// replaces the previous snapshot on every aggregation run.
type Snapshot struct {
	Stats
	UpdatedAt string `json:"updatedAt"`
}
