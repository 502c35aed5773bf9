package models

// Field identifies one column of the Apartment schema.
type Field int

const (
	FieldPrecio Field = iota + 1
	FieldComuna
	FieldSuperficieTotal
	FieldSuperficieUtil
	FieldDormitorios
	FieldAntiguedad
	FieldBanos
	FieldGastosComunes
	FieldEstacionamientos
	FieldBodegas
	FieldAmbientes
	FieldOrientacion
	FieldAdmiteMascotas
	FieldCantidadMaxHabitantes
	FieldPiso
	FieldDepartamentosPorPiso
	FieldCantidadPisos

	// Boolean presence flags.
	FieldBalcon
	FieldTerraza
	FieldEstacionamientoVisitas
	FieldSalonMultiuso
	FieldPiscina
	FieldGimnasio
	FieldParrilla
	FieldJardin
	FieldAmoblado
)

var fieldNames = map[Field]string{
	FieldPrecio:                 "precio",
	FieldComuna:                 "comuna",
	FieldSuperficieTotal:        "superficie_total",
	FieldSuperficieUtil:         "superficie_util",
	FieldDormitorios:            "dormitorios",
	FieldAntiguedad:             "antiguedad",
	FieldBanos:                  "banos",
	FieldGastosComunes:          "gastos_comunes",
	FieldEstacionamientos:       "estacionamientos",
	FieldBodegas:                "bodegas",
	FieldAmbientes:              "ambientes",
	FieldOrientacion:            "orientacion",
	FieldAdmiteMascotas:         "admite_mascotas",
	FieldCantidadMaxHabitantes:  "cantidad_max_habitantes",
	FieldPiso:                   "piso",
	FieldDepartamentosPorPiso:   "departamentos_por_piso",
	FieldCantidadPisos:          "cantidad_pisos",
	FieldBalcon:                 "balcon",
	FieldTerraza:                "terraza",
	FieldEstacionamientoVisitas: "estacionamiento_visitas",
	FieldSalonMultiuso:          "salon_multiuso",
	FieldPiscina:                "piscina",
	FieldGimnasio:               "gimnasio",
	FieldParrilla:               "parrilla",
	FieldJardin:                 "jardin",
	FieldAmoblado:               "amoblado",
}

// String returns the canonical identifier, which is also the JSON key.
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// IsFlag reports whether f is a boolean presence field.
func (f Field) IsFlag() bool {
	return f >= FieldBalcon && f <= FieldAmoblado
}

// Fields returns every schema field in declaration order.
func Fields() []Field {
	out := make([]Field, 0, len(fieldNames))
	for f := FieldPrecio; f <= FieldAmoblado; f++ {
		out = append(out, f)
	}
	return out
}

// Apartment is the flat record extracted from one listing detail page.
// Text fields keep the page's display text verbatim.
type Apartment struct {
	Precio                string `json:"precio"`
	Comuna                string `json:"comuna"`
	SuperficieTotal       string `json:"superficie_total"`
	SuperficieUtil        string `json:"superficie_util"`
	Dormitorios           string `json:"dormitorios"`
	Antiguedad            string `json:"antiguedad"`
	Banos                 string `json:"banos"`
	GastosComunes         string `json:"gastos_comunes"`
	Estacionamientos      string `json:"estacionamientos"`
	Bodegas               string `json:"bodegas"`
	Ambientes             string `json:"ambientes"`
	Orientacion           string `json:"orientacion"`
	AdmiteMascotas        string `json:"admite_mascotas"`
	CantidadMaxHabitantes string `json:"cantidad_max_habitantes"`
	Piso                  string `json:"piso"`
	DepartamentosPorPiso  string `json:"departamentos_por_piso"`
	CantidadPisos         string `json:"cantidad_pisos"`

	Balcon                 bool `json:"balcon"`
	Terraza                bool `json:"terraza"`
	EstacionamientoVisitas bool `json:"estacionamiento_visitas"`
	SalonMultiuso          bool `json:"salon_multiuso"`
	Piscina                bool `json:"piscina"`
	Gimnasio               bool `json:"gimnasio"`
	Parrilla               bool `json:"parrilla"`
	Jardin                 bool `json:"jardin"`
	Amoblado               bool `json:"amoblado"`
}

// SetText stores value into the text field f. Empty values never
// overwrite, and flag fields are not touched. It reports whether the
// record changed.
func (a *Apartment) SetText(f Field, value string) bool {
	if value == "" {
		return false
	}
	p := a.text(f)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// SetFlag marks the flag field f as present.
func (a *Apartment) SetFlag(f Field) bool {
	p := a.flag(f)
	if p == nil {
		return false
	}
	*p = true
	return true
}

// Text returns the value of text field f, or "" for flag fields.
func (a Apartment) Text(f Field) string {
	if p := a.text(f); p != nil {
		return *p
	}
	return ""
}

// Flag returns the value of flag field f, or false for text fields.
func (a Apartment) Flag(f Field) bool {
	if p := a.flag(f); p != nil {
		return *p
	}
	return false
}

func (a *Apartment) text(f Field) *string {
	switch f {
	case FieldPrecio:
		return &a.Precio
	case FieldComuna:
		return &a.Comuna
	case FieldSuperficieTotal:
		return &a.SuperficieTotal
	case FieldSuperficieUtil:
		return &a.SuperficieUtil
	case FieldDormitorios:
		return &a.Dormitorios
	case FieldAntiguedad:
		return &a.Antiguedad
	case FieldBanos:
		return &a.Banos
	case FieldGastosComunes:
		return &a.GastosComunes
	case FieldEstacionamientos:
		return &a.Estacionamientos
	case FieldBodegas:
		return &a.Bodegas
	case FieldAmbientes:
		return &a.Ambientes
	case FieldOrientacion:
		return &a.Orientacion
	case FieldAdmiteMascotas:
		return &a.AdmiteMascotas
	case FieldCantidadMaxHabitantes:
		return &a.CantidadMaxHabitantes
	case FieldPiso:
		return &a.Piso
	case FieldDepartamentosPorPiso:
		return &a.DepartamentosPorPiso
	case FieldCantidadPisos:
		return &a.CantidadPisos
	}
	return nil
}

func (a *Apartment) flag(f Field) *bool {
	switch f {
	case FieldBalcon:
		return &a.Balcon
	case FieldTerraza:
		return &a.Terraza
	case FieldEstacionamientoVisitas:
		return &a.EstacionamientoVisitas
	case FieldSalonMultiuso:
		return &a.SalonMultiuso
	case FieldPiscina:
		return &a.Piscina
	case FieldGimnasio:
		return &a.Gimnasio
	case FieldParrilla:
		return &a.Parrilla
	case FieldJardin:
		return &a.Jardin
	case FieldAmoblado:
		return &a.Amoblado
	}
	return nil
}
