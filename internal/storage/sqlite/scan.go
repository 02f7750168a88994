package sqlite

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/zeroaltitude/vestige/pkg/types"
)

const selectMemorySQL = `
	SELECT id, content, node_type, tags, embedding, embedding_dimension, embedding_version,
		created_at, updated_at, last_accessed_at,
		stability, difficulty, storage_strength, retrieval_strength, review_count, access_history,
		source, encoding_context, state, state_updated_at, unavailable, deleted_at,
		supersedes_id, content_hash
	FROM memories`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*types.Memory, error) {
	var m types.Memory
	var tagsJSON, historyJSON, ctxJSON, nodeType, state string
	var embBlob []byte
	var stateUpdatedAt, deletedAt sql.NullTime
	var supersedesID sql.NullString
	var unavailable int

	err := row.Scan(
		&m.ID, &m.Content, &nodeType, &tagsJSON, &embBlob, &m.EmbeddingDimension, &m.EmbeddingVersion,
		&m.CreatedAt, &m.UpdatedAt, &m.LastAccessedAt,
		&m.Stability, &m.Difficulty, &m.StorageStrength, &m.RetrievalStrength, &m.ReviewCount, &historyJSON,
		&m.Source, &ctxJSON, &state, &stateUpdatedAt, &unavailable, &deletedAt,
		&supersedesID, &m.ContentHash,
	)
	if err != nil {
		return nil, err
	}

	m.Type = types.NodeType(nodeType)
	m.State = types.MemoryState(state)
	m.Unavailable = unavailable != 0
	if stateUpdatedAt.Valid {
		m.StateUpdatedAt = stateUpdatedAt.Time
	}
	if deletedAt.Valid {
		m.DeletedAt = deletedAt.Time
	}
	if supersedesID.Valid {
		m.SupersedesID = supersedesID.String
	}
	_ = json.Unmarshal([]byte(tagsJSON), &m.Tags)
	_ = json.Unmarshal([]byte(historyJSON), &m.AccessHistory)
	_ = json.Unmarshal([]byte(ctxJSON), &m.EncodingContext)
	m.Embedding = decodeEmbedding(embBlob, m.EmbeddingDimension)

	return &m, nil
}

func scanMemories(rows *sql.Rows) ([]types.Memory, error) {
	var out []types.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// encodeEmbedding serializes a float32 vector as little-endian bytes.
func encodeEmbedding(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeEmbedding deserializes a little-endian float32 vector, validating
// against the recorded dimension. Returns nil on mismatch rather than
// erroring, since a corrupt/legacy embedding should degrade (treated as
// "no embedding") rather than fail the whole row scan.
func decodeEmbedding(buf []byte, dimension int) []float32 {
	if dimension <= 0 || len(buf) != dimension*4 {
		return nil
	}
	v := make([]float32, dimension)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
