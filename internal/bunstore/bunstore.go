// Package bunstore implements the store contract on SQLite through bun.
// Collections map to tables, documents to rows, and the substring predicate
// to an instr(lower(...)) scan, so no regex support is required of the
// database.
package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-catalog-cache/store"
)

// Store is a SQLite-backed document store.
type Store struct {
	db *bun.DB
}

// Open creates a store over the given SQLite DSN (a file path, or
// ":memory:") and creates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("bunstore: open %q: %w", dsn, err)
	}
	if strings.Contains(dsn, ":memory:") {
		// An in-memory database exists per connection; keep the pool at
		// one so every query sees the same data.
		sqldb.SetMaxOpenConns(1)
	}
	s := New(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := s.Init(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing bun DB. Init must have been run against it.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// Init creates the tables and indexes if they do not exist.
func (s *Store) Init(ctx context.Context) error {
	for _, def := range tables {
		if _, err := s.db.ExecContext(ctx, def.createSQL()); err != nil {
			return fmt.Errorf("bunstore: create %s: %w", def.table, err)
		}
	}
	for _, idx := range indexes {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("bunstore: create index: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Count implements store.Store.
func (s *Store) Count(ctx context.Context, collection string, pred store.Predicate) (int, error) {
	def, err := tableFor(collection)
	if err != nil {
		return 0, err
	}
	q := s.db.NewSelect().Table(def.table).ColumnExpr("count(*)")
	if q, err = applyPredicate(q, pred); err != nil {
		return 0, err
	}
	var n int
	if err := q.Scan(ctx, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Query implements store.Store. Results are ordered by the requested field
// with the primary key as tiebreak, which keeps repeated identical queries
// stable for skip/limit batching.
func (s *Store) Query(ctx context.Context, collection string, pred store.Predicate, opts store.QueryOptions) ([]store.Doc, error) {
	def, err := tableFor(collection)
	if err != nil {
		return nil, err
	}

	q := s.db.NewSelect().Table(def.table)
	if q, err = applyPredicate(q, pred); err != nil {
		return nil, err
	}
	if ord := opts.OrderBy; ord != nil {
		dir := "ASC"
		if ord.Desc {
			dir = "DESC"
		}
		q = q.OrderExpr("? "+dir, bun.Ident(columnName(ord.Field)))
	}
	q = q.OrderExpr("id ASC")

	limit := opts.Limit
	if limit <= 0 || limit > store.MaxQueryLimit {
		limit = store.MaxQueryLimit
	}
	q = q.Limit(limit)
	if opts.Skip > 0 {
		q = q.Offset(opts.Skip)
	}

	var rows []map[string]any
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	docs := make([]store.Doc, len(rows))
	for i, row := range rows {
		docs[i] = def.docFromRow(row)
	}
	return docs, nil
}

// GetByID implements store.Store.
func (s *Store) GetByID(ctx context.Context, collection, id string) (store.Doc, error) {
	def, err := tableFor(collection)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	err = s.db.NewSelect().Table(def.table).Where("id = ?", id).Limit(1).Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return def.docFromRow(rows[0]), nil
}

// GetByIDs implements store.Store. Missing ids are absent from the result;
// found records come back in input order.
func (s *Store) GetByIDs(ctx context.Context, collection string, ids []string) ([]store.Doc, error) {
	def, err := tableFor(collection)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []map[string]any
	err = s.db.NewSelect().Table(def.table).Where("id IN (?)", bun.In(ids)).Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]store.Doc, len(rows))
	for _, row := range rows {
		doc := def.docFromRow(row)
		byID[doc.String(store.FieldID)] = doc
	}
	out := make([]store.Doc, 0, len(byID))
	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Insert implements store.Store.
func (s *Store) Insert(ctx context.Context, collection string, doc store.Doc) (string, error) {
	def, err := tableFor(collection)
	if err != nil {
		return "", err
	}
	id := doc.String(store.FieldID)
	if id == "" {
		id = uuid.New().String()
	}
	row, err := def.rowFromDoc(id, doc)
	if err != nil {
		return "", err
	}
	if _, err := s.db.NewInsert().Model(&row).TableExpr(def.table).Exec(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// Update implements store.Store. IncValue fields become atomic
// "col = col + ?" assignments evaluated in the database.
func (s *Store) Update(ctx context.Context, collection, id string, fields store.Doc) error {
	def, err := tableFor(collection)
	if err != nil {
		return err
	}

	q := s.db.NewUpdate().Table(def.table).Where("id = ?", id)
	set := 0
	for field, value := range fields {
		if field == store.FieldID {
			continue
		}
		col := columnName(field)
		if _, ok := def.fieldFor(col); !ok {
			return fmt.Errorf("bunstore: unknown field %q in %s", field, collection)
		}
		if inc, ok := value.(store.IncValue); ok {
			q = q.Set("? = ? + ?", bun.Ident(col), bun.Ident(col), inc.Delta)
		} else {
			q = q.Set("? = ?", bun.Ident(col), value)
		}
		set++
	}
	if set == 0 {
		return nil
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Remove implements store.Store.
func (s *Store) Remove(ctx context.Context, collection, id string) error {
	def, err := tableFor(collection)
	if err != nil {
		return err
	}
	res, err := s.db.NewDelete().Table(def.table).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RemoveWhere implements store.Store.
func (s *Store) RemoveWhere(ctx context.Context, collection string, pred store.Predicate) (int, error) {
	def, err := tableFor(collection)
	if err != nil {
		return 0, err
	}
	q := s.db.NewDelete().Table(def.table)
	for _, cond := range pred {
		col := columnName(cond.Field)
		switch cond.Op {
		case store.OpEq:
			q = q.Where("? = ?", bun.Ident(col), cond.Value)
		case store.OpContains:
			sub, _ := cond.Value.(string)
			q = q.Where("instr(lower(?), ?) > 0", bun.Ident(col), strings.ToLower(sub))
		default:
			return 0, fmt.Errorf("bunstore: unsupported predicate op %d", cond.Op)
		}
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Upsert implements store.Store. The row is fully replaced: fields missing
// from the doc reset to their column defaults, matching the full-replace
// contract.
func (s *Store) Upsert(ctx context.Context, collection, id string, doc store.Doc) error {
	def, err := tableFor(collection)
	if err != nil {
		return err
	}
	row, err := def.rowFromDoc(id, doc)
	if err != nil {
		return err
	}

	cols := make([]string, 0, len(def.cols)+1)
	args := make([]any, 0, len(def.cols)+1)
	cols = append(cols, "id")
	args = append(args, id)
	for _, c := range def.cols {
		col := columnName(c.field)
		cols = append(cols, col)
		args = append(args, row[col])
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(def.table)
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES (")
	b.WriteString(strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	b.WriteString(") ON CONFLICT (id) DO UPDATE SET ")
	for i, col := range cols[1:] {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col)
		b.WriteString(" = excluded.")
		b.WriteString(col)
	}

	_, err = s.db.ExecContext(ctx, b.String(), args...)
	return err
}

func tableFor(collection string) (tableDef, error) {
	def, ok := tables[collection]
	if !ok {
		return tableDef{}, fmt.Errorf("bunstore: unknown collection %q", collection)
	}
	return def, nil
}

func applyPredicate(q *bun.SelectQuery, pred store.Predicate) (*bun.SelectQuery, error) {
	for _, cond := range pred {
		col := columnName(cond.Field)
		switch cond.Op {
		case store.OpEq:
			q = q.Where("? = ?", bun.Ident(col), cond.Value)
		case store.OpContains:
			sub, _ := cond.Value.(string)
			q = q.Where("instr(lower(?), ?) > 0", bun.Ident(col), strings.ToLower(sub))
		default:
			return nil, fmt.Errorf("bunstore: unsupported predicate op %d", cond.Op)
		}
	}
	return q, nil
}

// docFromRow converts a scanned row to a document, normalizing driver
// value types.
func (t tableDef) docFromRow(row map[string]any) store.Doc {
	doc := make(store.Doc, len(row))
	for col, v := range row {
		field, ok := t.fieldFor(col)
		if !ok {
			continue
		}
		switch n := v.(type) {
		case []byte:
			doc[field] = string(n)
		case int:
			doc[field] = int64(n)
		case nil:
			// dropped
		default:
			doc[field] = n
		}
	}
	return doc
}

// rowFromDoc converts a document to a column map, filling absent fields
// with their zero values so inserts and upserts are always complete rows.
func (t tableDef) rowFromDoc(id string, doc store.Doc) (map[string]any, error) {
	row := make(map[string]any, len(t.cols)+1)
	row["id"] = id
	for _, c := range t.cols {
		v, ok := doc[c.field]
		if !ok {
			if c.sqlType == "INTEGER" {
				row[columnName(c.field)] = int64(0)
			} else {
				row[columnName(c.field)] = ""
			}
			continue
		}
		if _, isInc := v.(store.IncValue); isInc {
			return nil, errors.New("bunstore: increment not allowed in insert or upsert")
		}
		row[columnName(c.field)] = v
	}
	return row, nil
}
