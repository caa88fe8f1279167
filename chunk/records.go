package chunk

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/c360/cleansweep/document"
	"github.com/c360/cleansweep/errors"
	"github.com/c360/cleansweep/transform"
)

// ChunkRecords fans each record out into one record per chunk of its text
// field. Every output record carries the source record's fields plus "chunk"
// (the chunk text) and "chunk_id". When the source record has a string or
// integer "id" field the chunk id is "<id>-<n>" with n starting at 1;
// otherwise a random UUID is assigned per chunk.
func ChunkRecords(records []transform.Record, field string, s Strategy) ([]transform.Record, error) {
	out := make([]transform.Record, 0, len(records))
	for i := range records {
		text, ok := records[i].Get(field)
		if !ok {
			continue
		}
		if text.Kind() != document.KindString {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: field %q on record %d is %s, want string",
					errors.ErrTypeCoercion, field, i, text.Kind()),
				"chunk", "ChunkRecords", "read chunk field")
		}

		for n, piece := range Split(text.StringVal(), s) {
			rec := records[i].Clone()
			rec.Set("chunk", document.String(piece))
			rec.Set("chunk_id", document.String(chunkID(&records[i], n)))
			out = append(out, rec)
		}
	}
	return out, nil
}

func chunkID(rec *transform.Record, n int) string {
	id, ok := rec.Get("id")
	if !ok {
		return uuid.NewString()
	}
	switch id.Kind() {
	case document.KindString:
		return fmt.Sprintf("%s-%d", id.StringVal(), n+1)
	case document.KindInt:
		return fmt.Sprintf("%d-%d", id.IntVal(), n+1)
	default:
		return uuid.NewString()
	}
}
