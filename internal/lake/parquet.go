package lake

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// ContentTypeParquet is the content type silver and gold objects are stored with.
const ContentTypeParquet = "application/vnd.apache.parquet"

// MarshalParquet encodes rows as a snappy-compressed parquet file.
func MarshalParquet[T any](rows []T) ([]byte, error) {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[T](&buf, parquet.Compression(&parquet.Snappy))
	if _, err := w.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalParquet decodes all rows of a parquet file.
func UnmarshalParquet[T any](data []byte) ([]T, error) {
	rows, err := parquet.Read[T](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}
	return rows, nil
}

// RequireColumns fails when the parquet file lacks one of the named columns.
// The gold stage uses it to fail fast instead of aggregating a partial schema.
func RequireColumns(data []byte, columns ...string) error {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open parquet file: %w", err)
	}

	present := make(map[string]bool)
	for _, field := range f.Schema().Fields() {
		present[field.Name()] = true
	}

	var missing []string
	for _, col := range columns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("parquet file is missing required columns %v", missing)
	}
	return nil
}
