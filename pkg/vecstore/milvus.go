package vecstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Milvus field names.
const (
	milvusFieldID       = "id"
	milvusFieldVector   = "vector"
	milvusFieldMetadata = "metadata"

	milvusMaxIDLength = 512
)

// DefaultMilvusCollection is the collection used when
// MilvusOptions.Collection is empty.
const DefaultMilvusCollection = "transcript_segments"

// MilvusOptions configures a Milvus index.
type MilvusOptions struct {
	Address  string // host:port. Required.
	Username string
	Password string
	APIKey   string

	// Collection holds the records. Created with an HNSW cosine index on
	// first use.
	Collection string

	// Dimension is the size of the vector field. Required.
	Dimension int
}

// Milvus is an Index backed by a Milvus collection with fields id (varchar
// primary key), vector (float vector) and metadata (JSON).
type Milvus struct {
	mc   client.Client
	coll string
	dim  int
}

var _ Index = (*Milvus)(nil)

// NewMilvus connects to Milvus, creates the collection and its index if
// missing, and loads it.
func NewMilvus(ctx context.Context, opts MilvusOptions) (*Milvus, error) {
	if opts.Address == "" {
		return nil, errors.New("vecstore: MilvusOptions.Address is required")
	}
	if opts.Dimension <= 0 {
		return nil, errors.New("vecstore: MilvusOptions.Dimension is required")
	}
	coll := opts.Collection
	if coll == "" {
		coll = DefaultMilvusCollection
	}

	mc, err := client.NewClient(ctx, client.Config{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		APIKey:   opts.APIKey,
	})
	if err != nil {
		return nil, unavailable("milvus", "open", err)
	}

	m := &Milvus{mc: mc, coll: coll, dim: opts.Dimension}
	if err := m.ensureCollection(ctx); err != nil {
		mc.Close()
		return nil, unavailable("milvus", "open", err)
	}
	return m, nil
}

func (m *Milvus) ensureCollection(ctx context.Context) error {
	has, err := m.mc.HasCollection(ctx, m.coll)
	if err != nil {
		return err
	}
	if !has {
		schema := entity.NewSchema().
			WithName(m.coll).
			WithDescription("podcast transcript segments").
			WithField(entity.NewField().WithName(milvusFieldID).WithDataType(entity.FieldTypeVarChar).
				WithIsPrimaryKey(true).WithMaxLength(milvusMaxIDLength)).
			WithField(entity.NewField().WithName(milvusFieldVector).WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(m.dim))).
			WithField(entity.NewField().WithName(milvusFieldMetadata).WithDataType(entity.FieldTypeJSON))
		if err := m.mc.CreateCollection(ctx, schema, 2); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}

		idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 200)
		if err != nil {
			return fmt.Errorf("new hnsw index: %w", err)
		}
		if err := m.mc.CreateIndex(ctx, m.coll, milvusFieldVector, idx, false); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	if err := m.mc.LoadCollection(ctx, m.coll, false); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	return nil
}

// Upsert writes records column-wise and flushes so they are searchable.
func (m *Milvus) Upsert(ctx context.Context, records []Record) error {
	if err := ValidateRecords(records, m.dim); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	ids, vecs, mds, err := milvusColumns(records)
	if err != nil {
		return err
	}

	_, err = m.mc.Upsert(ctx, m.coll, "",
		entity.NewColumnVarChar(milvusFieldID, ids),
		entity.NewColumnFloatVector(milvusFieldVector, m.dim, vecs),
		entity.NewColumnJSONBytes(milvusFieldMetadata, mds),
	)
	if err != nil {
		return unavailable("milvus", "upsert", err)
	}
	return unavailable("milvus", "upsert", m.mc.Flush(ctx, m.coll, false))
}

// Query runs an HNSW search with the filter translated to a boolean
// expression over the metadata JSON field.
func (m *Milvus) Query(ctx context.Context, q Query) ([]Match, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	expr, err := milvusFilterExpr(q.Filter)
	if err != nil {
		return nil, err
	}
	var outFields []string
	if q.IncludeMetadata {
		outFields = []string{milvusFieldMetadata}
	}

	sp, err := entity.NewIndexHNSWSearchParam(max(64, q.TopK))
	if err != nil {
		return nil, fmt.Errorf("vecstore: milvus search param: %w", err)
	}
	res, err := m.mc.Search(ctx, m.coll, []string{}, expr, outFields,
		[]entity.Vector{entity.FloatVector(q.Vector)}, milvusFieldVector, entity.COSINE, q.TopK, sp)
	if err != nil {
		return nil, unavailable("milvus", "query", err)
	}

	var matches []Match
	for _, r := range res {
		if r.Err != nil {
			return nil, unavailable("milvus", "query", r.Err)
		}
		ids, ok := r.IDs.(*entity.ColumnVarChar)
		if !ok {
			return nil, fmt.Errorf("vecstore: milvus returned %T ids", r.IDs)
		}
		var mdCol *entity.ColumnJSONBytes
		for _, c := range r.Fields {
			if c.Name() == milvusFieldMetadata {
				mdCol, _ = c.(*entity.ColumnJSONBytes)
			}
		}
		for i := 0; i < r.ResultCount; i++ {
			match := Match{ID: ids.Data()[i], Score: r.Scores[i]}
			if q.IncludeMetadata && mdCol != nil && i < len(mdCol.Data()) {
				if err := json.Unmarshal(mdCol.Data()[i], &match.Metadata); err != nil {
					return nil, fmt.Errorf("vecstore: decode metadata of %q: %w", match.ID, err)
				}
			}
			matches = append(matches, match)
		}
	}
	return matches, nil
}

// Delete removes records by primary key.
func (m *Milvus) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return unavailable("milvus", "delete", m.mc.Delete(ctx, m.coll, "", milvusIDExpr(ids)))
}

// Count returns the collection row count. Milvus counts rows lazily, so
// recently deleted records may still be included.
func (m *Milvus) Count(ctx context.Context) (int, error) {
	stats, err := m.mc.GetCollectionStatistics(ctx, m.coll)
	if err != nil {
		return 0, unavailable("milvus", "count", err)
	}
	n, err := strconv.Atoi(stats["row_count"])
	if err != nil {
		return 0, fmt.Errorf("vecstore: milvus row_count %q: %w", stats["row_count"], err)
	}
	return n, nil
}

// Close closes the client connection.
func (m *Milvus) Close() error {
	return m.mc.Close()
}

func milvusColumns(records []Record) (ids []string, vecs [][]float32, mds [][]byte, err error) {
	ids = make([]string, len(records))
	vecs = make([][]float32, len(records))
	mds = make([][]byte, len(records))
	for i, r := range records {
		if len(r.ID) > milvusMaxIDLength {
			return nil, nil, nil, fmt.Errorf("%w: id %q longer than %d bytes", ErrInvalidRecord, r.ID, milvusMaxIDLength)
		}
		md, err := metadataJSON(r.Metadata)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("vecstore: encode metadata of %q: %w", r.ID, err)
		}
		ids[i] = r.ID
		vecs[i] = r.Vector
		mds[i] = []byte(md)
	}
	return ids, vecs, mds, nil
}

// milvusFilterExpr renders f as `metadata["k"] == v && ...` with keys in
// sorted order. An empty filter renders as "".
func milvusFilterExpr(f Filter) (string, error) {
	if len(f) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(f))
	for _, k := range slices.Sorted(maps.Keys(f)) {
		lit, err := milvusLiteral(f[k])
		if err != nil {
			return "", fmt.Errorf("%w: filter %q: %v", ErrInvalidQuery, k, err)
		}
		parts = append(parts, fmt.Sprintf("%s[%s] == %s", milvusFieldMetadata, strconv.Quote(k), lit))
	}
	return strings.Join(parts, " && "), nil
}

func milvusLiteral(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("unsupported value type %T", v)
}

func milvusIDExpr(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = strconv.Quote(id)
	}
	return fmt.Sprintf("%s in [%s]", milvusFieldID, strings.Join(quoted, ", "))
}
