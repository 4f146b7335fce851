package erms

// Combination is one (assembly, name, relative name) triple to search for.
type Combination struct {
	Assembly     string `json:"assembly"`
	Name         string `json:"name"`
	RelativeName string `json:"relativeName"`
}

// SessionTokens is the anti-forgery and session state of one server-side
// form session. Each stage consumes the tokens of the previous stage and
// returns the tokens the next stage must send.
type SessionTokens struct {
	ViewState          string
	ViewStateGenerator string
	EventValidation    string
	// Cookie is the value of the Cookie header, it is empty if the portal
	// has not assigned a session yet.
	Cookie string
}

// ElectorRecord is one row of the results grid. Every field is kept as text
// because numbers carry leading zeros and may be written in Gujarati digits.
type ElectorRecord struct {
	AssemblyNo   string `json:"assemblyNo"`
	PartNo       string `json:"partNo"`
	SerialNo     string `json:"serialNo"`
	HouseNo      string `json:"houseNo"`
	Name         string `json:"name"`
	Relation     string `json:"relation"`
	RelativeName string `json:"relativeName"`
	Gender       string `json:"gender"`
	EpicNo       string `json:"epicNo"`
	SectionName  string `json:"sectionName"`
}

// Key identifies an elector across searches.
func (r ElectorRecord) Key() string {
	return r.AssemblyNo + "%" + r.PartNo + "%" + r.SerialNo
}

// resultHeadings is the column order of the results grid.
var resultHeadings = []string{
	"assemblyNo",
	"partNo",
	"serialNo",
	"houseNo",
	"name",
	"relation",
	"relativeName",
	"gender",
	"epicNo",
	"sectionName",
}

func recordFromRow(row map[string]string) ElectorRecord {
	return ElectorRecord{
		AssemblyNo:   row["assemblyNo"],
		PartNo:       row["partNo"],
		SerialNo:     row["serialNo"],
		HouseNo:      row["houseNo"],
		Name:         row["name"],
		Relation:     row["relation"],
		RelativeName: row["relativeName"],
		Gender:       row["gender"],
		EpicNo:       row["epicNo"],
		SectionName:  row["sectionName"],
	}
}

type Meta struct {
	CurrentPage  int    `json:"currentPage"`
	TotalPages   int    `json:"totalPages"`
	TotalRecords int    `json:"totalRecords"`
	Message      string `json:"message"`
}

// SearchResultPage is what a single search returns.
type SearchResultPage struct {
	Records []ElectorRecord `json:"records"`
	Meta    Meta            `json:"meta"`
}
