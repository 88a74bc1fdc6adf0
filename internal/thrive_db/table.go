package thrivedb

import (
	"fmt"
	"sort"
	"strings"
)

// Column declares one attribute of a table. Type is the portable form
// used by the schema ("int" or "str"), not the SQL type.
type Column struct {
	Name       string
	Type       string
	PrimaryKey bool
	Default    interface{}
	References string
	Index      string
}

// Table represents one named table of a ThriveDB. It holds only a
// back-reference to the owning handle, never the connection itself.
type Table struct {
	db   *ThriveDB
	name string
}

func newTable(db *ThriveDB, name string) *Table {
	return &Table{
		db:   db,
		name: name,
	}
}

func (t *Table) Name() string {
	return t.name
}

// AddAttribute declares a column on the table. The first attribute of a
// new table creates it; later ones are added with ALTER TABLE, so this
// must only run during schema bootstrap, before any rows exist.
// References creates a foreign key to the other table's id column, and
// Index set to "unique" creates a unique index on the column.
func (t *Table) AddAttribute(col Column) error {
	def, err := columnDef(col)
	if err != nil {
		return err
	}

	exists, err := t.db.Contains(t.name)
	if err != nil {
		return err
	}

	if !exists {
		_, err = t.db.conn.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(t.name), def))
	} else {
		_, err = t.db.conn.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quoteIdent(t.name), def))
	}
	if err != nil {
		return fmt.Errorf("adding attribute %q to table %q: %w", col.Name, t.name, err)
	}

	if col.Index == "unique" {
		indexName := fmt.Sprintf("idx_%s_%s", t.name, col.Name)
		_, err = t.db.conn.Exec(fmt.Sprintf(
			"CREATE UNIQUE INDEX %s ON %s (%s)",
			quoteIdent(indexName), quoteIdent(t.name), quoteIdent(col.Name),
		))
		if err != nil {
			return fmt.Errorf("creating unique index on %s.%s: %w", t.name, col.Name, err)
		}
	}

	return nil
}

// Append inserts one row and returns the assigned primary-key value for
// tables with an integer primary key. Unset columns take their schema
// default or NULL. Constraint violations are returned to the caller
// unwrapped beyond context; the mining logic checks existence first.
func (t *Table) Append(values map[string]interface{}) (int64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("appending to table %q: no values given", t.name)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make([]string, 0, len(names))
	placeholders := make([]string, 0, len(names))
	args := make([]interface{}, 0, len(names))
	for _, name := range names {
		cols = append(cols, quoteIdent(name))
		placeholders = append(placeholders, "?")
		args = append(args, values[name])
	}

	result, err := t.db.conn.Exec(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(t.name), strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	), args...)
	if err != nil {
		return 0, fmt.Errorf("appending to table %q: %w", t.name, err)
	}

	return result.LastInsertId()
}

// String renders all rows of the table for diagnostics.
func (t *Table) String() string {
	rows, err := t.db.conn.Query(fmt.Sprintf("SELECT * FROM %s", quoteIdent(t.name)))
	if err != nil {
		return fmt.Sprintf("table %s: %v", t.name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Sprintf("table %s: %v", t.name, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Table %s: %s\n", t.name, strings.Join(cols, ", "))

	values := make([]interface{}, len(cols))
	scans := make([]interface{}, len(cols))
	for i := range values {
		scans[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scans...); err != nil {
			fmt.Fprintf(&sb, "  error: %v\n", err)
			break
		}
		fields := make([]string, len(cols))
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			fields[i] = fmt.Sprintf("%v", v)
		}
		fmt.Fprintf(&sb, "  %s\n", strings.Join(fields, ", "))
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintf(&sb, "  error: %v\n", err)
	}

	return sb.String()
}

// columnDef renders the SQL fragment for a column declaration.
func columnDef(col Column) (string, error) {
	sqlType, err := sqlType(col.Type)
	if err != nil {
		return "", fmt.Errorf("column %q: %w", col.Name, err)
	}

	def := quoteIdent(col.Name) + " " + sqlType
	if col.PrimaryKey {
		def += " PRIMARY KEY"
	}
	if col.Default != nil {
		def += " DEFAULT " + literal(col.Default)
	}
	if col.References != "" {
		def += fmt.Sprintf(" REFERENCES %s (%s)", quoteIdent(col.References), quoteIdent("id"))
	}
	return def, nil
}

func sqlType(portable string) (string, error) {
	switch portable {
	case "int":
		return "INTEGER", nil
	case "str":
		return "TEXT", nil
	default:
		return "", fmt.Errorf("unsupported column type %q", portable)
	}
}

func literal(value interface{}) string {
	switch v := value.(type) {
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// quoteIdent quotes a SQL identifier. Column names like "commit" are
// reserved words, so every identifier is quoted.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
