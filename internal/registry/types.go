package registry

// #region status
// Status is the lifecycle state of a chain.
type Status string

const (
	// StatusActive chains matched a table in the most recent processed year
	// (or were just created).
	StatusActive Status = "active"
	// StatusDormant chains missed the current year but are within the gap
	// budget and may still reactivate.
	StatusDormant Status = "dormant"
	// StatusEnded chains exceeded the gap budget. Terminal.
	StatusEnded Status = "ended"
	// StatusMerged marks a chain produced by the consolidation pass.
	StatusMerged Status = "merged"
)

// #endregion status

// #region table
// Table is one extracted table instance. Owned by the extraction stage;
// read-only here.
type Table struct {
	ID      string `json:"id"`
	Chapter int    `json:"chapter"`
	Year    int    `json:"year"`
	Header  string `json:"header"`
	MaskRef string `json:"mask_reference"`
}

// #endregion table

// #region chain
// Chain is a time-ordered record of one continuing dataset. The parallel
// slices Tables/Years/Headers/MaskRefs always have equal length; Similarities
// and OracleValidated are one shorter (the seed entry has no predecessor).
type Chain struct {
	ID              string    `json:"id"`
	Tables          []string  `json:"tables"`
	Years           []int     `json:"years"`
	Headers         []string  `json:"headers"`
	MaskRefs        []string  `json:"mask_references"`
	Status          Status    `json:"status"`
	Gaps            []int     `json:"gaps"`
	Similarities    []float64 `json:"similarities"`
	OracleValidated []bool    `json:"oracle_validated"`
	DormantSince    int       `json:"dormant_since,omitempty"`
	SourceChains    []string  `json:"source_chains,omitempty"`
	SourceChapters  []int     `json:"source_chapters,omitempty"`
}

// #endregion chain

// #region match
// Match is one validated chain←table assignment for the current year.
// Normalized record produced at the solver/validator boundary.
type Match struct {
	ChainID         string
	TableID         string
	Similarity      float64
	OracleValidated bool
}

// #endregion match
