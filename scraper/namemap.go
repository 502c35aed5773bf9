package scraper

import (
	"strings"

	"github.com/facualex/portalinmobiliario-etl/models"
)

// featureFields translates labels shown on listing pages, both in the
// characteristics table and in the Ambientes / Comodidades tab panels,
// into record fields. Labels not listed here are ignored.
var featureFields = map[string]models.Field{
	"Superficie total":              models.FieldSuperficieTotal,
	"Superficie útil":               models.FieldSuperficieUtil,
	"Dormitorios":                   models.FieldDormitorios,
	"Antigüedad":                    models.FieldAntiguedad,
	"Baños":                         models.FieldBanos,
	"Gastos comunes":                models.FieldGastosComunes,
	"Estacionamientos":              models.FieldEstacionamientos,
	"Bodegas":                       models.FieldBodegas,
	"Ambientes":                     models.FieldAmbientes,
	"Orientación":                   models.FieldOrientacion,
	"Admite mascotas":               models.FieldAdmiteMascotas,
	"Cantidad máxima de habitantes": models.FieldCantidadMaxHabitantes,
	"Número de piso de la unidad":   models.FieldPiso,
	"Departamentos por piso":        models.FieldDepartamentosPorPiso,
	"Cantidad de pisos":             models.FieldCantidadPisos,
	"Balcón":                        models.FieldBalcon,
	"Terraza":                       models.FieldTerraza,
	"Estacionamiento de visitas":    models.FieldEstacionamientoVisitas,
	"Salón de usos múltiples":       models.FieldSalonMultiuso,
	"Piscina":                       models.FieldPiscina,
	"Gimnasio":                      models.FieldGimnasio,
	"Parrilla":                      models.FieldParrilla,
	"Jardín":                        models.FieldJardin,
	"Amoblado":                      models.FieldAmoblado,
}

// LookupFeature resolves a page label to its record field.
func LookupFeature(label string) (models.Field, bool) {
	f, ok := featureFields[strings.TrimSpace(label)]
	return f, ok
}
