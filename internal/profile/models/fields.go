package models

import (
	"strconv"
	"strings"
)

// Field describes one tracked profile column. Get and Normalize render values
// with the same rules so stored and requested values compare as strings.
type Field struct {
	Name      string
	get       func(*Profile) string
	set       func(*Profile, string)
	normalize func(*string) string
}

// Get returns the normalized stored value.
func (f Field) Get(p *Profile) string { return f.get(p) }

// Normalize renders a requested value. nil renders as the field's empty value.
func (f Field) Normalize(v *string) string { return f.normalize(v) }

// Set writes a normalized value into p.
func (f Field) Set(p *Profile, normalized string) { f.set(p, normalized) }

func text(name string, ptr func(*Profile) *string) Field {
	return Field{
		Name:      name,
		get:       func(p *Profile) string { return *ptr(p) },
		set:       func(p *Profile, v string) { *ptr(p) = v },
		normalize: normalizeText,
	}
}

func flag(name string, ptr func(*Profile) *bool) Field {
	return Field{
		Name:      name,
		get:       func(p *Profile) string { return strconv.FormatBool(*ptr(p)) },
		set:       func(p *Profile, v string) { *ptr(p) = v == "true" },
		normalize: normalizeBool,
	}
}

func normalizeText(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func normalizeBool(v *string) string {
	if v == nil {
		return "false"
	}
	switch strings.ToLower(strings.TrimSpace(*v)) {
	case "true", "1", "si", "sí", "yes", "on":
		return "true"
	default:
		return "false"
	}
}

// TrackedFields lists every audited profile column in storage order.
var TrackedFields = []Field{
	text("nombre", func(p *Profile) *string { return &p.Nombre }),
	text("telefono", func(p *Profile) *string { return &p.Telefono }),
	text("profesion", func(p *Profile) *string { return &p.Profesion }),
	text("empresa", func(p *Profile) *string { return &p.Empresa }),
	text("correo_personal", func(p *Profile) *string { return &p.CorreoPersonal }),
	text("identificacion", func(p *Profile) *string { return &p.Identificacion }),
	text("ciudad_residencia", func(p *Profile) *string { return &p.CiudadResidencia }),
	text("direccion_domicilio", func(p *Profile) *string { return &p.DireccionDomicilio }),
	text("barrio", func(p *Profile) *string { return &p.Barrio }),
	text("programa_academico", func(p *Profile) *string { return &p.ProgramaAcademico }),
	text("sede", func(p *Profile) *string { return &p.Sede }),
	text("laboralmente_activo", func(p *Profile) *string { return &p.LaboralmenteActivo }),
	text("cargo_actual", func(p *Profile) *string { return &p.CargoActual }),
	text("sector_economico", func(p *Profile) *string { return &p.SectorEconomico }),
	text("nombre_empresa", func(p *Profile) *string { return &p.NombreEmpresa }),
	text("rango_salarial", func(p *Profile) *string { return &p.RangoSalarial }),
	text("ejerce_perfil_profesional", func(p *Profile) *string { return &p.EjercePerfilProfesional }),
	text("reconocimientos", func(p *Profile) *string { return &p.Reconocimientos }),
	flag("tratamiento_datos", func(p *Profile) *bool { return &p.TratamientoDatos }),
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, len(TrackedFields))
	for _, f := range TrackedFields {
		m[f.Name] = f
	}
	return m
}()

// FieldByName looks up a tracked field.
func FieldByName(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// Diff compares patch against current and returns one change per supplied field whose
// normalized value differs. Unknown keys are ignored. Old values that render empty are nil.
func Diff(current *Profile, patch Patch) []FieldChange {
	var changes []FieldChange
	for _, f := range TrackedFields {
		raw, supplied := patch[f.Name]
		if !supplied {
			continue
		}
		newValue := f.Normalize(raw)
		oldValue := f.Get(current)
		if newValue == oldValue {
			continue
		}
		var old *string
		if oldValue != "" {
			old = &oldValue
		}
		changes = append(changes, FieldChange{Field: f.Name, OldValue: old, NewValue: newValue})
	}
	return changes
}

// Apply writes the supplied fields of patch into p.
func Apply(p *Profile, patch Patch) {
	for _, f := range TrackedFields {
		if raw, supplied := patch[f.Name]; supplied {
			f.Set(p, f.Normalize(raw))
		}
	}
}

// ApplyChanges writes already-diffed changes into p.
func ApplyChanges(p *Profile, changes []FieldChange) {
	for _, c := range changes {
		if f, ok := FieldByName(c.Field); ok {
			f.Set(p, c.NewValue)
		}
	}
}
