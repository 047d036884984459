package graph

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// Import Record Types
// ============================================================================

// ImportPayload is the batch import file format. Each top-level key is
// optional; a nil slice means the key was absent from the input.
type ImportPayload struct {
	Requirements []RequirementRecord `json:"requirements"`
	TestCases    []TestCaseRecord    `json:"testCases"`
	TestRuns     []TestRunRecord     `json:"testRuns"`
	Links        []LinkRecord        `json:"links"`
}

// RequirementRecord is an incoming requirement. The source format is loose:
// customers may be a single value or a list, object-shaped or scalar, and
// arbitrary extra scalar properties ride along on the node. Variant resolution
// happens here, at the ingestion boundary, not in the import queries.
type RequirementRecord struct {
	ID           string
	Title        string
	Text         string
	ReqDocNo     string
	SrcDocNo     string
	Customers    []CustomerRef
	Parents      []string
	CustomerReqs []string
	Srds         []SrdItem
	Extra        map[string]interface{}
}

// UnmarshalJSON resolves the heterogeneous input shapes into typed fields.
// Unknown scalar fields are collected into Extra; nested structures that the
// schema does not model are dropped rather than written as node properties.
func (r *RequirementRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Extra = make(map[string]interface{})
	for key, val := range raw {
		switch key {
		case "id":
			if err := json.Unmarshal(val, &r.ID); err != nil {
				return fmt.Errorf("requirement id: %w", err)
			}
		case "title":
			_ = json.Unmarshal(val, &r.Title)
		case "text":
			_ = json.Unmarshal(val, &r.Text)
		case "ReqDocNo":
			r.ReqDocNo = scalarToString(val)
		case "src":
			var src struct {
				DocNo json.RawMessage `json:"docno"`
			}
			if err := json.Unmarshal(val, &src); err == nil && src.DocNo != nil {
				r.SrcDocNo = scalarToString(src.DocNo)
			}
		case "Customer":
			var refs customerRefList
			if err := json.Unmarshal(val, &refs); err != nil {
				return fmt.Errorf("requirement %s customer: %w", r.ID, err)
			}
			r.Customers = refs
		case "parents":
			r.Parents = decodeStringList(val)
		case "customer_req":
			r.CustomerReqs = decodeStringList(val)
		case "srd":
			if err := json.Unmarshal(val, &r.Srds); err != nil {
				return fmt.Errorf("requirement %s srd: %w", r.ID, err)
			}
		default:
			if v, ok := decodeScalar(val); ok {
				r.Extra[key] = v
			}
		}
	}
	return nil
}

// CustomerRef is a customer reference that may arrive as an {id,name} object
// or as a bare scalar id.
type CustomerRef struct {
	ID   string
	Name string
}

func (c *CustomerRef) UnmarshalJSON(data []byte) error {
	var obj struct {
		ID   json.RawMessage `json:"id"`
		Name string          `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.ID != nil {
		c.ID = scalarToString(obj.ID)
		c.Name = obj.Name
		return nil
	}
	c.ID = scalarToString(data)
	c.Name = ""
	if c.ID == "" {
		return fmt.Errorf("customer reference is neither an object nor a scalar: %s", string(data))
	}
	return nil
}

// customerRefList accepts either a single customer reference or a list.
type customerRefList []CustomerRef

func (l *customerRefList) UnmarshalJSON(data []byte) error {
	var many []CustomerRef
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one CustomerRef
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = customerRefList{one}
	return nil
}

// SrdItem is one specification/requirement-document entry attached to a
// requirement, keyed by its own "no" field.
type SrdItem struct {
	No    string
	Extra map[string]interface{}
}

func (s *SrdItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Extra = make(map[string]interface{})
	for key, val := range raw {
		if key == "no" {
			s.No = scalarToString(val)
			continue
		}
		if v, ok := decodeScalar(val); ok {
			s.Extra[key] = v
		}
	}
	return nil
}

// TestCaseRecord is an incoming test case.
type TestCaseRecord struct {
	ID          string
	Name        string
	Description string
	Verifies    []string
	Extra       map[string]interface{}
}

func (t *TestCaseRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Extra = make(map[string]interface{})
	for key, val := range raw {
		switch key {
		case "id":
			if err := json.Unmarshal(val, &t.ID); err != nil {
				return fmt.Errorf("test case id: %w", err)
			}
		case "name":
			_ = json.Unmarshal(val, &t.Name)
		case "description":
			_ = json.Unmarshal(val, &t.Description)
		case "verifies":
			t.Verifies = decodeStringList(val)
		default:
			if v, ok := decodeScalar(val); ok {
				t.Extra[key] = v
			}
		}
	}
	return nil
}

// TestRunRecord is an incoming test run.
type TestRunRecord struct {
	ID         string
	Status     string
	Log        string
	TestCaseID string
	Extra      map[string]interface{}
}

func (t *TestRunRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Extra = make(map[string]interface{})
	for key, val := range raw {
		switch key {
		case "id":
			if err := json.Unmarshal(val, &t.ID); err != nil {
				return fmt.Errorf("test run id: %w", err)
			}
		case "status":
			_ = json.Unmarshal(val, &t.Status)
		case "log":
			_ = json.Unmarshal(val, &t.Log)
		case "testCaseId":
			t.TestCaseID = scalarToString(val)
		default:
			if v, ok := decodeScalar(val); ok {
				t.Extra[key] = v
			}
		}
	}
	return nil
}

// LinkRecord is a generic typed link between two existing nodes.
type LinkRecord struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
	LinkType string `json:"linkType"`
}

// ============================================================================
// Retrieval Types
// ============================================================================

// IDsByType groups business ids into the three embeddable entity buckets.
type IDsByType struct {
	Requirements []string
	TestCases    []string
	TestRuns     []string
}

// Empty reports whether no bucket has any id.
func (g IDsByType) Empty() bool {
	return len(g.Requirements) == 0 && len(g.TestCases) == 0 && len(g.TestRuns) == 0
}

// Neighborhood holds the per-type graph expansion of a seed id set. A nil
// slice means the type was never queried; an empty non-nil slice means it was
// queried and nothing survived. JSON output omits unqueried types entirely.
type Neighborhood struct {
	Requirements []RequirementNeighbors
	TestCases    []TestCaseNeighbors
	TestRuns     []TestRunNeighbors
}

// MarshalJSON omits a type's key when its bucket was not queried, keeping the
// "not queried" / "queried, no neighbors" distinction visible to API clients.
func (n Neighborhood) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 3)
	if n.Requirements != nil {
		out["requirements"] = n.Requirements
	}
	if n.TestCases != nil {
		out["testCases"] = n.TestCases
	}
	if n.TestRuns != nil {
		out["testRuns"] = n.TestRuns
	}
	return json.Marshal(out)
}

// RequirementNeighbors lists the distinct related ids around one requirement.
type RequirementNeighbors struct {
	ReqID        string   `json:"reqId"`
	TestCases    []string `json:"testCases"`
	TestRuns     []string `json:"testRuns"`
	Customers    []string `json:"customers"`
	CustomerReqs []string `json:"customerReqs"`
	ReqDocs      []string `json:"reqDocs"`
}

// TestCaseNeighbors lists the distinct related ids around one test case.
type TestCaseNeighbors struct {
	TcID         string   `json:"tcId"`
	Requirements []string `json:"requirements"`
	TestRuns     []string `json:"testRuns"`
}

// TestRunNeighbors lists the distinct related ids around one test run.
type TestRunNeighbors struct {
	TrID         string   `json:"trId"`
	TestCases    []string `json:"testCases"`
	Requirements []string `json:"requirements"`
}

// EmbeddableRow is one graph node prepared for embedding sync.
type EmbeddableRow struct {
	Label      string
	BusinessID string
	Content    string
}
