package models

// ReferenceKind names a reference-data code table.
type ReferenceKind string

const (
	ReferenceProvince ReferenceKind = "province"
	ReferenceDistrict ReferenceKind = "district"
	ReferenceDivision ReferenceKind = "division"
	ReferenceNikaya   ReferenceKind = "nikaya"
)

// ReferenceItem is a coded entry in a reference table (province, district,
// divisional secretariat, nikaya). Lookups validate transition payloads but
// never drive workflow state.
type ReferenceItem struct {
	Code       string `db:"code" json:"code"`
	Name       string `db:"name" json:"name"`
	ParentCode string `db:"parent_code" json:"parentCode,omitempty"`
	Active     bool   `db:"active" json:"active"`
}
