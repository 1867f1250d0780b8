package bunstore

import (
	"strings"
	"unicode"

	"github.com/goliatone/go-catalog-cache/store"
)

// colDef describes one document field and its SQLite column type.
type colDef struct {
	field   string
	sqlType string
}

// tableDef maps a collection to its table and columns. The id column is
// implied; every other doc field appears here.
type tableDef struct {
	table string
	cols  []colDef
}

// tables registers the collections the adapter knows how to persist.
// Unknown collections are rejected rather than silently created.
var tables = map[string]tableDef{
	"restaurants": {
		table: "restaurants",
		cols: []colDef{
			{"ownerId", "TEXT"},
			{"name", "TEXT"},
			{"address", "TEXT"},
			{"mustTryCount", "INTEGER"},
			{"avoidCount", "INTEGER"},
			{"createdAt", "INTEGER"},
		},
	},
	"dishes": {
		table: "dishes",
		cols: []colDef{
			{"ownerId", "TEXT"},
			{"restaurantId", "TEXT"},
			{"name", "TEXT"},
			{"rating", "TEXT"},
			{"note", "TEXT"},
			{"createdAt", "INTEGER"},
		},
	},
	"user_stats": {
		table: "user_stats",
		cols: []colDef{
			{"totalRestaurants", "INTEGER"},
			{"totalDishes", "INTEGER"},
			{"mustTryCount", "INTEGER"},
			{"avoidCount", "INTEGER"},
			{"lastUpdated", "INTEGER"},
		},
	},
}

// indexes created alongside the tables; the owner and parent scans are the
// hot query paths.
var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_restaurants_owner ON restaurants (owner_id)",
	"CREATE INDEX IF NOT EXISTS idx_dishes_owner ON dishes (owner_id)",
	"CREATE INDEX IF NOT EXISTS idx_dishes_restaurant ON dishes (restaurant_id)",
}

// createSQL renders the CREATE TABLE statement for a table definition.
func (t tableDef) createSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(t.table)
	b.WriteString(" (id TEXT PRIMARY KEY")
	for _, c := range t.cols {
		b.WriteString(", ")
		b.WriteString(columnName(c.field))
		b.WriteByte(' ')
		b.WriteString(c.sqlType)
		if c.sqlType == "INTEGER" {
			b.WriteString(" NOT NULL DEFAULT 0")
		} else {
			b.WriteString(" NOT NULL DEFAULT ''")
		}
	}
	b.WriteString(")")
	return b.String()
}

// columnName maps a document field to its column. The id pseudo-field maps
// to the primary key; everything else is the snake_case form of the field.
func columnName(field string) string {
	if field == store.FieldID {
		return "id"
	}
	return toSnake(field)
}

// fieldFor is the reverse of columnName for a known table definition.
func (t tableDef) fieldFor(column string) (string, bool) {
	if column == "id" {
		return store.FieldID, true
	}
	for _, c := range t.cols {
		if columnName(c.field) == column {
			return c.field, true
		}
	}
	return "", false
}

// toSnake converts an ASCII camelCase identifier to snake_case. Field names
// here are plain camelCase, so a lowercase-boundary scan is all that is
// needed; punctuation never reaches this function.
func toSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/2)
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
