package model

import "time"

// Report kinds that can be exported.
const (
	ReportLoans        = "loans"
	ReportInstallments = "installments"
	ReportClosings     = "closings"
	ReportExpenses     = "expenses"
	ReportCashFlow     = "cashflow"
)

// ReportKinds lists every exportable report.
var ReportKinds = []string{ReportLoans, ReportInstallments, ReportClosings, ReportExpenses, ReportCashFlow}

// ReportExport is a generated CSV report kept in object storage.
// It is the only record the dashboard persists itself.
type ReportExport struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Filename    string    `json:"filename"`
	StoragePath string    `json:"storage_path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	RangeFrom   time.Time `json:"range_from"`
	RangeTo     time.Time `json:"range_to"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	DownloadURL string    `json:"download_url,omitempty"`
}
