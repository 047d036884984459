package constants

// Entity labels
const (
	LabelRequirement         = "Requirement"
	LabelReqDoc              = "ReqDoc"
	LabelTestCase            = "TestCase"
	LabelTestRun             = "TestRun"
	LabelCustomer            = "Customer"
	LabelCustomerRequirement = "CustomerRequirement"
	LabelSrd                 = "Srd"
)

// Relationship kinds
const (
	RelContains          = "CONTAINS"
	RelRefersRequirement = "REFERS_REQUIREMENT"
	RelUsesRequirement   = "USES_REQUIREMENT"
	RelParentOf          = "PARENT_OF"
	RelRelatedTo         = "RELATED_TO"
	RelBelongsToDoc      = "BELONGS_TO_DOC"
	RelAssociatedWith    = "ASSOCIATED_WITH"
	RelVerifiedBy        = "VERIFIED_BY"
	RelExecutedIn        = "EXECUTED_IN"

	// DefaultLinkType is used for generic links that carry no explicit type
	DefaultLinkType = "LINKS_TO"
)

// Retrieval constants
const (
	// VectorSearchTopK is the number of nearest entries fetched per query
	VectorSearchTopK = 5

	// MaxRelationshipTypeLength caps caller-supplied link type identifiers
	MaxRelationshipTypeLength = 64
)
