package model

import "time"

// ImportError is a rejected spreadsheet row. It is data, not a failure of the batch.
type ImportError struct {
	RowNumber int    `json:"rowNumber"` // 1-indexed sheet row, header is row 1
	Message   string `json:"message"`
}

// ImportBatch is the in-memory result of parsing one uploaded workbook.
type ImportBatch[T Record] struct {
	Records []T           `json:"records"`
	Errors  []ImportError `json:"errors"`
}

// Collection reports which collection the batch belongs to.
func (b *ImportBatch[T]) Collection() Collection {
	var zero T
	return zero.Collection()
}

// AsRecords widens the typed records for the store boundary.
func (b *ImportBatch[T]) AsRecords() []Record {
	out := make([]Record, len(b.Records))
	for i, r := range b.Records {
		out[i] = r
	}
	return out
}

// ImportLog records one committed import.
type ImportLog struct {
	ID           int64      `json:"id"`
	Filename     string     `json:"filename"`
	Collection   Collection `json:"collection"`
	Mode         string     `json:"mode"`
	Records      int        `json:"records"`
	ErrorRows    int        `json:"errorRows"`
	Status       string     `json:"status"` // processing/committed/failed
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
