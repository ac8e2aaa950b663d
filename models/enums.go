package models

// AssetType tags the asset collection a schedule or inspection refers to.
// Tags are stored in the DB; resolution to a concrete table goes through the
// asset registry, never through reflection on stored strings.
type AssetType string

const (
	AssetTypeApar    AssetType = "apar"
	AssetTypeHydrant AssetType = "hydrant"
	AssetTypeP3k     AssetType = "p3k"
)

func (t AssetType) Valid() bool {
	switch t {
	case AssetTypeApar, AssetTypeHydrant, AssetTypeP3k:
		return true
	}
	return false
}

type ScheduleScope string

const (
	ScheduleScopeGlobal   ScheduleScope = "global"
	ScheduleScopeBuilding ScheduleScope = "building"
)

func (s ScheduleScope) Valid() bool {
	return s == ScheduleScopeGlobal || s == ScheduleScopeBuilding
}

type AssignType string

const (
	// AssignTypePic assigns the task to the asset's room PIC.
	AssignTypePic AssignType = "pic"
	// AssignTypeK3 leaves the task open for any safety-team member to claim.
	AssignTypeK3 AssignType = "k3"
)

func (a AssignType) Valid() bool {
	return a == AssignTypePic || a == AssignTypeK3
}

type InspectionStatus string

const (
	InspectionStatusPending   InspectionStatus = "pending"
	InspectionStatusOverdue   InspectionStatus = "overdue"
	InspectionStatusCompleted InspectionStatus = "completed"
	InspectionStatusIssue     InspectionStatus = "issue"
)

// AssetStatus is the derived real-world condition of an asset, written back
// by the condition resolver on every completed inspection.
type AssetStatus string

const (
	AssetStatusSafe     AssetStatus = "safe"
	AssetStatusCritical AssetStatus = "critical"
)

type ChecklistInputType string

const (
	InputTypeBoolean  ChecklistInputType = "boolean"
	InputTypeRadio    ChecklistInputType = "radio"
	InputTypeSelect   ChecklistInputType = "select"
	InputTypeText     ChecklistInputType = "text"
	InputTypeNumber   ChecklistInputType = "number"
	InputTypeTextarea ChecklistInputType = "textarea"
	InputTypeDate     ChecklistInputType = "date"
)

func (t ChecklistInputType) Valid() bool {
	switch t {
	case InputTypeBoolean, InputTypeRadio, InputTypeSelect, InputTypeText,
		InputTypeNumber, InputTypeTextarea, InputTypeDate:
		return true
	}
	return false
}

// Comparable reports whether answers for this input type are compared against
// standard_value. Numeric and date inputs are informational per checklist
// policy; quantities have their own standards.
func (t ChecklistInputType) Comparable() bool {
	return t != InputTypeNumber && t != InputTypeDate
}
