package models

// Listing pairs an extracted record with the detail URL it came from.
type Listing struct {
	URL       string
	Apartment Apartment
}

// ComunaResult is the outcome of the extraction phase for one comuna.
type ComunaResult struct {
	Comuna   string
	Index    int // position in the comuna list, keeps output order stable
	Links    int // links attempted, including pages that failed to load
	Listings []Listing
	Err      error
}

// Apartments flattens results into the record list written to JSON.
func Apartments(results []ComunaResult) []Apartment {
	all := make([]Apartment, 0)
	for _, r := range results {
		for _, l := range r.Listings {
			all = append(all, l.Apartment)
		}
	}
	return all
}
