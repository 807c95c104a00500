package models

// FieldType is the semantic type of a record field.
type FieldType string

const (
	FieldString     FieldType = "string"
	FieldEnum       FieldType = "enum"
	FieldNumeric    FieldType = "numeric"
	FieldSerialDate FieldType = "serial-date"
)

// FieldCategory says whether a field may appear in a synthesized filter.
type FieldCategory string

const (
	// CategoryFilterable fields may appear in a query predicate.
	CategoryFilterable FieldCategory = "filterable-static"
	// CategoryInformational fields are passed to the answer model only.
	CategoryInformational FieldCategory = "informational"
	// CategoryDerived concepts are computed by the answer model and never filtered.
	CategoryDerived FieldCategory = "derived"
)

// Field describes one column of the workforce dataset.
type Field struct {
	Name        string
	Type        FieldType
	Category    FieldCategory
	Group       string
	Description string
	// Query marks fields listed in the query-synthesis prompt.
	Query bool
	// QueryHint overrides Description in the query-synthesis prompt.
	QueryHint string
}

// Field groups in the order the answer prompt lists them.
const (
	GroupSOW        = "SOW Information"
	GroupEmployee   = "Employee Information"
	GroupLevels     = "Level Analysis (CRITICAL)"
	GroupCapability = "Role & Capability"
	GroupFinancial  = "Financial Data"
	GroupResource   = "Resource Management"
)

var fieldGroups = []string{GroupSOW, GroupEmployee, GroupLevels, GroupCapability, GroupFinancial, GroupResource}

var schema = []Field{
	{Name: "Parent SOW", Type: FieldString, Category: CategoryInformational, Group: GroupSOW, Description: "Parent statement of work"},
	{Name: "SOW No", Type: FieldString, Category: CategoryFilterable, Group: GroupSOW, Description: "Actual SOW number", Query: true, QueryHint: "SOW number"},
	{Name: "Team Name", Type: FieldString, Category: CategoryFilterable, Group: GroupSOW, Description: "Team the employee belongs to", Query: true, QueryHint: "Team name"},
	{Name: "Sub Team", Type: FieldString, Category: CategoryInformational, Group: GroupSOW, Description: "Sub-team within main team"},
	{Name: "Signed Date", Type: FieldSerialDate, Category: CategoryInformational, Group: GroupSOW, Description: "SOW signing date"},
	{Name: "Valid Till", Type: FieldSerialDate, Category: CategoryInformational, Group: GroupSOW, Description: "SOW expiration date"},
	{Name: "SOW Validity", Type: FieldString, Category: CategoryInformational, Group: GroupSOW, Description: "Validity period"},
	{Name: "SOW Quarter", Type: FieldString, Category: CategoryInformational, Group: GroupSOW, Description: "Quarter of SOW signing"},

	{Name: "Name", Type: FieldString, Category: CategoryFilterable, Group: GroupEmployee, Description: "Employee name", Query: true},
	{Name: "Email", Type: FieldString, Category: CategoryInformational, Group: GroupEmployee, Description: "Employee email"},
	{Name: "OPID", Type: FieldString, Category: CategoryInformational, Group: GroupEmployee, Description: "Employee ID"},
	{Name: "Functional Manager", Type: FieldString, Category: CategoryInformational, Group: GroupEmployee, Description: "Manager name"},
	{Name: "Resource start date", Type: FieldSerialDate, Category: CategoryFilterable, Group: GroupEmployee, Description: "When employee started", Query: true, QueryHint: "Start date (EXCEL SERIAL NUMBER, e.g., 45291)"},
	{Name: "Resource End Date", Type: FieldSerialDate, Category: CategoryFilterable, Group: GroupEmployee, Description: "When employee ends", Query: true, QueryHint: "End date (EXCEL SERIAL NUMBER, e.g., 46021)"},
	{Name: "Status", Type: FieldEnum, Category: CategoryFilterable, Group: GroupEmployee, Description: "Current status (Active, etc.)", Query: true, QueryHint: "Active/Inactive status"},

	{Name: "Job Level", Type: FieldEnum, Category: CategoryFilterable, Group: GroupLevels, Description: "Company's internal understanding of employee level", Query: true, QueryHint: "Company level (1P, 2P, 3P)"},
	{Name: "SOW Level", Type: FieldEnum, Category: CategoryFilterable, Group: GroupLevels, Description: "Level as per SOW agreement", Query: true, QueryHint: "SOW agreed level"},
	{Name: "Billed Level", Type: FieldEnum, Category: CategoryFilterable, Group: GroupLevels, Description: "ACTUAL level company is billing at", Query: true, QueryHint: "Actual billed level"},
	{Name: "Internal Level", Type: FieldEnum, Category: CategoryInformational, Group: GroupLevels, Description: "Internal assessment"},
	{Name: "Client Assessed Level", Type: FieldEnum, Category: CategoryInformational, Group: GroupLevels, Description: "How client views the employee"},

	{Name: "Role- SOW", Type: FieldString, Category: CategoryInformational, Group: GroupCapability, Description: "Role as per SOW"},
	{Name: "Capability", Type: FieldString, Category: CategoryInformational, Group: GroupCapability, Description: "Employee capability"},
	{Name: "Capability Pillar", Type: FieldString, Category: CategoryInformational, Group: GroupCapability, Description: "Capability category"},
	{Name: "Capability- Actual", Type: FieldString, Category: CategoryInformational, Group: GroupCapability, Description: "Actual capability"},
	{Name: "Updated Capability", Type: FieldString, Category: CategoryInformational, Group: GroupCapability, Description: "Updated capability info"},
	{Name: "Title", Type: FieldString, Category: CategoryInformational, Group: GroupCapability, Description: "Job title"},

	{Name: "ARR Positions", Type: FieldNumeric, Category: CategoryInformational, Group: GroupFinancial, Description: "Annual Recurring Revenue positions"},
	{Name: "ARR Value", Type: FieldNumeric, Category: CategoryInformational, Group: GroupFinancial, Description: "ARR value in local currency", Query: true, QueryHint: "Annual Recurring Revenue"},
	{Name: "ARR Value $Mn", Type: FieldNumeric, Category: CategoryInformational, Group: GroupFinancial, Description: "ARR value in millions USD"},
	{Name: "Billing Rate", Type: FieldNumeric, Category: CategoryInformational, Group: GroupFinancial, Description: "Billing rate", Query: true},
	{Name: "Billed At", Type: FieldString, Category: CategoryInformational, Group: GroupFinancial, Description: "What level billed at"},
	{Name: "Hourly Rate", Type: FieldNumeric, Category: CategoryInformational, Group: GroupFinancial, Description: "Hourly billing rate"},
	{Name: "Positions", Type: FieldNumeric, Category: CategoryInformational, Group: GroupFinancial, Description: "Number of positions"},
	{Name: "Short Positions", Type: FieldNumeric, Category: CategoryInformational, Group: GroupFinancial, Description: "Short-term positions"},
	{Name: "Short Term Value", Type: FieldNumeric, Category: CategoryInformational, Group: GroupFinancial, Description: "Short-term value"},
	{Name: "Short Term Value $Mn", Type: FieldNumeric, Category: CategoryInformational, Group: GroupFinancial, Description: "Short-term value in millions USD"},

	{Name: "Req ID", Type: FieldString, Category: CategoryInformational, Group: GroupResource, Description: "Requirement ID"},
	{Name: "Engg/Ops", Type: FieldEnum, Category: CategoryInformational, Group: GroupResource, Description: "Engineering or Operations"},
	{Name: "CG status", Type: FieldString, Category: CategoryInformational, Group: GroupResource, Description: "CG status"},
	{Name: "CGID", Type: FieldString, Category: CategoryInformational, Group: GroupResource, Description: "CG identifier"},
	{Name: "Transfer", Type: FieldString, Category: CategoryInformational, Group: GroupResource, Description: "Transfer status"},
	{Name: "Remapped", Type: FieldString, Category: CategoryInformational, Group: GroupResource, Description: "Remapping status"},
	{Name: "Possible Attrition", Type: FieldEnum, Category: CategoryFilterable, Group: GroupResource, Description: "Attrition risk", Query: true, QueryHint: "Attrition risk (Yes/No)"},
	{Name: "Identified Backup", Type: FieldString, Category: CategoryInformational, Group: GroupResource, Description: "Backup identified", Query: true, QueryHint: "Backup resource name"},
	{Name: "Internal Backup", Type: FieldString, Category: CategoryInformational, Group: GroupResource, Description: "Internal backup resource"},
	{Name: "Backup start date", Type: FieldSerialDate, Category: CategoryInformational, Group: GroupResource, Description: "When backup starts"},
	{Name: "IsNextquater", Type: FieldString, Category: CategoryInformational, Group: GroupResource, Description: "Next quarter flag"},
	{Name: "Revenue Miss", Type: FieldEnum, Category: CategoryInformational, Group: GroupResource, Description: "Revenue miss flag", Query: true},
	{Name: "Revenue Miss Backfill", Type: FieldString, Category: CategoryInformational, Group: GroupResource, Description: "Backfill for revenue miss"},
}

// Schema returns the field descriptors in prompt order. The slice is a copy.
func Schema() []Field {
	out := make([]Field, len(schema))
	copy(out, schema)
	return out
}

// SchemaGroups returns the group names in prompt order.
func SchemaGroups() []string {
	out := make([]string, len(fieldGroups))
	copy(out, fieldGroups)
	return out
}

// QueryFields returns the subset described to the query synthesizer.
func QueryFields() []Field {
	var out []Field
	for _, f := range schema {
		if f.Query {
			out = append(out, f)
		}
	}
	return out
}

// LookupField finds a descriptor by exact name.
func LookupField(name string) (Field, bool) {
	for _, f := range schema {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ConceptKind groups derived concepts the way the query prompt lists them.
type ConceptKind string

const (
	ConceptCalculation ConceptKind = "calculation"
	ConceptThreshold   ConceptKind = "threshold"
	ConceptAggregation ConceptKind = "aggregation"
)

// DerivedConcept is a term computed from retrieved records by the answer
// model. A question that mentions only these must retrieve the whole collection.
type DerivedConcept struct {
	Term string
	Kind ConceptKind
}

var derivedConcepts = []DerivedConcept{
	{"Profit", ConceptCalculation},
	{"Loss", ConceptCalculation},
	{"Margin", ConceptCalculation},
	{"Not making profit", ConceptCalculation},
	{"Upsell", ConceptCalculation},
	{"Efficiency", ConceptCalculation},
	{"Minimum billing rate", ConceptThreshold},
	{"Below minimum", ConceptThreshold},
	{"Most", ConceptAggregation},
	{"Least", ConceptAggregation},
	{"Count", ConceptAggregation},
	{"Total", ConceptAggregation},
	{"Average", ConceptAggregation},
	{"Group by", ConceptAggregation},
}

// DerivedConcepts returns the derived concepts in prompt order.
func DerivedConcepts() []DerivedConcept {
	out := make([]DerivedConcept, len(derivedConcepts))
	copy(out, derivedConcepts)
	return out
}

// DerivedTerms returns the terms of one kind, in prompt order.
func DerivedTerms(kind ConceptKind) []string {
	var out []string
	for _, c := range DerivedConcepts() {
		if c.Kind == kind {
			out = append(out, c.Term)
		}
	}
	return out
}

// CriticalFields is the projection applied when a result set exceeds the payload cap.
var CriticalFields = []string{
	"Name",
	"Team Name",
	"Job Level",
	"SOW Level",
	"Billed Level",
	"ARR Value",
	"Billing Rate",
	"Resource End Date",
	"Revenue Miss",
	"Possible Attrition",
	"Resource start date",
}
