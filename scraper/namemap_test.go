package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/facualex/portalinmobiliario-etl/models"
)

func TestLookupFeature(t *testing.T) {
	f, ok := LookupFeature("Dormitorios")
	assert.True(t, ok)
	assert.Equal(t, models.FieldDormitorios, f)

	f, ok = LookupFeature("  Número de piso de la unidad\n")
	assert.True(t, ok)
	assert.Equal(t, models.FieldPiso, f)

	_, ok = LookupFeature("Cocina americana")
	assert.False(t, ok)
}

func TestFeatureFieldsCoverSchema(t *testing.T) {
	mapped := map[models.Field]bool{}
	for _, f := range featureFields {
		mapped[f] = true
	}
	// every field but price and comuna is reachable from a page label
	for _, f := range models.Fields() {
		if f == models.FieldPrecio || f == models.FieldComuna {
			assert.False(t, mapped[f], f.String())
			continue
		}
		assert.True(t, mapped[f], f.String())
	}
}
