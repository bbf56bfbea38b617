package importer

import "errors"

// RowType tags one workbook row as a trim definition or an option line.
type RowType string

const (
	RowTypeTrim   RowType = "TRIM"
	RowTypeOption RowType = "OPTION"
)

// ParsedRecord is one workbook row after positional mapping, carry-forward
// and price coercion. Absent cells are empty strings / zero.
type ParsedRecord struct {
	VehicleName string
	RowType     RowType
	Model       string
	Trim        string
	BasePrice   int64
	OptionGroup string
	OptionName  string
	Price       int64
}

// BrandSheet pairs a sheet name with its records, preserving sheet order.
type BrandSheet struct {
	Name    string
	Records []ParsedRecord
}

// ErrIngestParseFailure is the only fatal parser error: the workbook itself
// cannot be read. Malformed cells are coerced, never fatal.
var ErrIngestParseFailure = errors.New("workbook is not readable")

// OptionEntity keeps input order; duplicates are preserved deliberately so
// they surface as a data-quality signal downstream.
type OptionEntity struct {
	Name  string
	Group string
	Price int64
}

type TrimEntity struct {
	Name      string
	BasePrice int64
	Options   []OptionEntity
}

type ModelEntity struct {
	Name  string
	Year  int
	Trims []TrimEntity
}

type LineEntity struct {
	Name   string
	Models []ModelEntity
}

// BrandEntities is the extractor's output for one brand sheet.
type BrandEntities struct {
	VehicleLines []LineEntity
	Warnings     []string
}

// ImportTaskPayload travels over the broker; workbook bytes go through
// object storage, never through the message body.
type ImportTaskPayload struct {
	JobId         int    `json:"job_id"`
	VersionId     int    `json:"version_id"`
	ObjectKey     string `json:"object_key"`
	Country       string `json:"country"`
	CorrelationId string `json:"correlation_id"`
}

type PromotionTaskPayload struct {
	JobId         int    `json:"job_id"`
	VersionId     int    `json:"version_id"`
	CorrelationId string `json:"correlation_id"`
}

// ImportResult is persisted on the job when ingestion finishes. Success is
// true only when the errors list is empty; soft errors never abort the run.
type ImportResult struct {
	Success          bool     `json:"success"`
	TotalRows        int      `json:"total_rows"`
	ProcessedRows    int      `json:"processed_rows"`
	BrandCount       int      `json:"brand_count"`
	VehicleLineCount int      `json:"vehicle_line_count"`
	ModelCount       int      `json:"model_count"`
	TrimCount        int      `json:"trim_count"`
	OptionCount      int      `json:"option_count"`
	Errors           []string `json:"errors"`
}

// PromotionResult summarizes one promotion run.
type PromotionResult struct {
	Success          bool     `json:"success"`
	BrandCount       int      `json:"brand_count"`
	VehicleLineCount int      `json:"vehicle_line_count"`
	ModelCount       int      `json:"model_count"`
	TrimCount        int      `json:"trim_count"`
	OptionCount      int      `json:"option_count"`
	Errors           []string `json:"errors"`
}
