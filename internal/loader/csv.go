package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// parseCSV produces one record per data row, rendered as "header: value"
// lines so column context survives embedding. The first row is the header.
// The row number (1-based, excluding the header) is recorded in metadata.
func parseCSV(content []byte, source string) ([]Record, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1 // Tolerate ragged rows

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) < 2 {
		// Header only (or empty file): no data rows, no records
		return nil, nil
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for rowNum, row := range rows[1:] {
		var builder strings.Builder
		for i, field := range row {
			if i > 0 {
				builder.WriteByte('\n')
			}
			if i < len(header) {
				builder.WriteString(header[i])
				builder.WriteString(": ")
			}
			builder.WriteString(field)
		}
		records = append(records, Record{
			Content: builder.String(),
			Metadata: map[string]string{
				"source": source,
				"row":    strconv.Itoa(rowNum + 1),
			},
		})
	}

	return records, nil
}
