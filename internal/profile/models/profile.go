package models

import (
	"time"

	id "egresados/pkg/domain"
)

// Profile is the mutable record of a graduate's contact, academic and employment data.
// JSON names match the column names of the tracked-field table.
type Profile struct {
	UserID id.UserID `json:"user_id"`

	Nombre                  string `json:"nombre"`
	Telefono                string `json:"telefono"`
	Profesion               string `json:"profesion"`
	Empresa                 string `json:"empresa"`
	CorreoPersonal          string `json:"correo_personal"`
	Identificacion          string `json:"identificacion"`
	CiudadResidencia        string `json:"ciudad_residencia"`
	DireccionDomicilio      string `json:"direccion_domicilio"`
	Barrio                  string `json:"barrio"`
	ProgramaAcademico       string `json:"programa_academico"`
	Sede                    string `json:"sede"`
	LaboralmenteActivo      string `json:"laboralmente_activo"`
	CargoActual             string `json:"cargo_actual"`
	SectorEconomico         string `json:"sector_economico"`
	NombreEmpresa           string `json:"nombre_empresa"`
	RangoSalarial           string `json:"rango_salarial"`
	EjercePerfilProfesional string `json:"ejerce_perfil_profesional"`
	Reconocimientos         string `json:"reconocimientos"`
	TratamientoDatos        bool   `json:"tratamiento_datos"`

	UpdatedAt time.Time `json:"fecha_actualizacion"`
}

// Patch is a partial profile update keyed by tracked field name.
// An absent key leaves the field untouched; a nil or empty value clears it.
type Patch map[string]*string

// Set records value for field, returning the patch for chaining in tests and adapters.
func (p Patch) Set(field, value string) Patch {
	p[field] = &value
	return p
}

// Clear records an explicit clear of field.
func (p Patch) Clear(field string) Patch {
	p[field] = nil
	return p
}

// FieldChange is one detected difference between the stored and requested value of a field.
type FieldChange struct {
	Field    string
	OldValue *string
	NewValue string
}

// ChangeNotice is published after a profile write commits.
type ChangeNotice struct {
	UserID    id.UserID `json:"user_id"`
	ChangedBy id.UserID `json:"changed_by"`
	Created   bool      `json:"created"`
	Fields    []string  `json:"fields"`
	At        time.Time `json:"at"`
}
