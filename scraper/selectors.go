package scraper

// CSS selectors used across the scraper.
const (
	// Search results page
	ListingCardSelector = `div.ui-search-result__wrapper`
	ListingLinkSelector = `a.ui-search-link`
	NextPageSelector    = `a[title="Siguiente"]`
	SearchReadySelector = `body`

	// Detail page, parsed markup
	CharacteristicsTableSelector = `tbody.andes-table__body`
	PriceSelector                = `span.andes-money-amount__fraction`

	// Detail page, live DOM
	TabsSelector           = `.andes-tabs`
	AmbientesPanelSelector = `#tab-content-id-ambientes`
	AmenitiesPanelSelector = `#tab-content-id-comodidades-y-equipamiento`
	PanelChildrenSuffix    = ` > div`
	DetailReadySelector    = `body`
)

// Tab labels whose panels carry boolean features.
const (
	AmbientesTabLabel = "Ambientes"
	AmenitiesTabLabel = "Comodidades y equipamiento"
)
