package model

// FieldKind discriminates the canonical field keys a spreadsheet column can
// normalize to. The fixed kinds cover identity and roster columns; drill score
// columns are represented by KindDrillScore plus the drill key.
type FieldKind int

const (
	KindFirstName FieldKind = iota
	KindLastName
	KindNumber
	KindAgeGroup
	KindExternalID
	KindTeamName
	KindPosition
	KindNotes
	KindDrillScore
)

// FieldKey identifies a canonical field. It is comparable and usable as a map
// key; drill-score keys carry the drill key alongside the kind so lookups are
// never stringly typed.
type FieldKey struct {
	kind  FieldKind
	drill string
}

// Fixed canonical keys.
var (
	FieldFirstName  = FieldKey{kind: KindFirstName}
	FieldLastName   = FieldKey{kind: KindLastName}
	FieldNumber     = FieldKey{kind: KindNumber}
	FieldAgeGroup   = FieldKey{kind: KindAgeGroup}
	FieldExternalID = FieldKey{kind: KindExternalID}
	FieldTeamName   = FieldKey{kind: KindTeamName}
	FieldPosition   = FieldKey{kind: KindPosition}
	FieldNotes      = FieldKey{kind: KindNotes}
)

// DrillScoreField returns the canonical key for one event drill's score column.
func DrillScoreField(drillKey string) FieldKey {
	return FieldKey{kind: KindDrillScore, drill: drillKey}
}

// Kind returns the discriminant.
func (k FieldKey) Kind() FieldKind { return k.kind }

// IsDrill reports whether the key addresses a drill score column.
func (k FieldKey) IsDrill() bool { return k.kind == KindDrillScore }

// DrillKey returns the drill key for drill-score fields, empty otherwise.
func (k FieldKey) DrillKey() string { return k.drill }

// String returns the canonical wire name of the field.
func (k FieldKey) String() string {
	switch k.kind {
	case KindFirstName:
		return "first_name"
	case KindLastName:
		return "last_name"
	case KindNumber:
		return "number"
	case KindAgeGroup:
		return "age_group"
	case KindExternalID:
		return "external_id"
	case KindTeamName:
		return "team_name"
	case KindPosition:
		return "position"
	case KindNotes:
		return "notes"
	case KindDrillScore:
		return "drill:" + k.drill
	default:
		return "unknown"
	}
}

// FixedFields lists the fixed canonical keys in display order: the required
// name pair first, optional roster keys after.
func FixedFields() []FieldKey {
	return []FieldKey{
		FieldFirstName,
		FieldLastName,
		FieldNumber,
		FieldAgeGroup,
		FieldExternalID,
		FieldTeamName,
		FieldPosition,
		FieldNotes,
	}
}

// MappedRow is a row re-keyed from source headers to canonical fields.
type MappedRow map[FieldKey]string
