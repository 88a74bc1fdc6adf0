// Package thrivedb implements the THRIVE store: a fixed relational
// schema over SQLite with dictionary-like access to its tables.
package thrivedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/csmol/thrivescraper/cfg"
	"github.com/csmol/thrivescraper/pkg/db"
	"github.com/csmol/thrivescraper/pkg/log"
)

// SchemaVersion is stamped into the metadata table at bootstrap.
const SchemaVersion = "1.0"

// ErrNotFound is returned by the id lookups when no row matches.
// Callers are expected to check the matching *Exists predicate first.
var ErrNotFound = errors.New("not found")

// Categories seeded at bootstrap. The list is fixed; "none" is the
// default category for mined repositories.
var seedCategories = []string{
	"none",
	"atomistic chemical ml",
	"atomistic materials ml",
	"atomistic materials",
	"atomistic molecular",
	"chemical ml",
	"computational mechanical",
	"experimental analysis",
	"granular simulation",
	"materials ml",
	"mesoscale materials ml",
	"mesoscale materials",
}

// Attribute describes one column as reported by the schema catalogue.
type Attribute struct {
	Type       string
	NotNull    bool
	Default    sql.NullString
	PrimaryKey bool
}

// ThriveDB owns the single connection to the store and exposes
// mapping-like access to its tables. Table objects are created lazily
// and cached per name, so one logical Table instance represents each
// table for the life of the handle.
type ThriveDB struct {
	Config *cfg.Config
	Logger log.Logger
	Sqlite *db.Sqlite
	conn   *sql.DB
	items  map[string]*Table
	closed bool
}

// New opens (or creates) the store behind the Sqlite wrapper and runs
// schema bootstrap if the metadata table is absent.
func New(config *cfg.Config, logger log.Logger, sqlite *db.Sqlite) (*ThriveDB, error) {
	conn, err := sqlite.Db()
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	t := &ThriveDB{
		Config: config,
		Logger: logger,
		Sqlite: sqlite,
		conn:   conn,
		items:  make(map[string]*Table),
	}

	if err := t.initialize(); err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	return t, nil
}

// Get returns the Table for the given name, creating and caching the
// instance on first access.
func (t *ThriveDB) Get(name string) *Table {
	if _, ok := t.items[name]; !ok {
		t.items[name] = newTable(t, name)
	}
	return t.items[name]
}

// Set rejects item assignment: tables are only created by the schema
// bootstrap, never by replacing a mapping entry.
func (t *ThriveDB) Set(name string, _ *Table) error {
	return fmt.Errorf("table %q cannot be created by assignment", name)
}

// Delete drops the table if it exists.
func (t *ThriveDB) Delete(name string) error {
	exists, err := t.Contains(name)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if _, err := t.conn.Exec(fmt.Sprintf("DROP TABLE %s", quoteIdent(name))); err != nil {
		return fmt.Errorf("dropping table %q: %w", name, err)
	}
	delete(t.items, name)
	return nil
}

// Contains reports whether the table exists, consulting the schema
// catalogue. A "schema.table" qualified name queries the named
// schema's catalogue; the default schema is "main".
func (t *ThriveDB) Contains(name string) (bool, error) {
	schema := "main"
	table := name
	if strings.Contains(name, ".") {
		parts := strings.SplitN(name, ".", 2)
		schema = strings.Trim(parts[0], `"`)
		table = parts[1]
	}
	table = strings.Trim(table, `"`)

	var count int
	err := t.conn.QueryRow(fmt.Sprintf(
		"SELECT COUNT(*) FROM %s.sqlite_master WHERE type = 'table' AND name = ?",
		quoteIdent(schema),
	), table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking for table %q: %w", name, err)
	}
	return count == 1, nil
}

// List returns the names of all tables in the store.
func (t *ThriveDB) List() ([]string, error) {
	rows, err := t.conn.Query("SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Len returns the number of tables in the store.
func (t *ThriveDB) Len() (int, error) {
	var count int
	err := t.conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting tables: %w", err)
	}
	return count, nil
}

// Attributes returns the column descriptors of the given table, keyed
// by column name. The name may be schema-qualified.
func (t *ThriveDB) Attributes(name string) (map[string]Attribute, error) {
	var sqlText string
	if strings.Contains(name, ".") {
		parts := strings.SplitN(name, ".", 2)
		schema := strings.Trim(parts[0], `"`)
		table := strings.Trim(parts[1], `"`)
		sqlText = fmt.Sprintf("PRAGMA %s.table_info(%s)", quoteIdent(schema), quoteIdent(table))
	} else {
		sqlText = fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(strings.Trim(name, `"`)))
	}

	rows, err := t.conn.Query(sqlText)
	if err != nil {
		return nil, fmt.Errorf("reading attributes of %q: %w", name, err)
	}
	defer rows.Close()

	result := make(map[string]Attribute)
	for rows.Next() {
		var (
			cid      int
			colName  string
			colType  string
			notNull  int
			dflt     sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		result[colName] = Attribute{
			Type:       colType,
			NotNull:    notNull != 0,
			Default:    dflt,
			PrimaryKey: pk != 0,
		}
	}
	return result, rows.Err()
}

// Version returns the schema version stamped in the metadata table.
func (t *ThriveDB) Version() (string, error) {
	var version string
	err := t.conn.QueryRow("SELECT value FROM metadata WHERE key = 'version'").Scan(&version)
	if err != nil {
		return "", fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// Conn exposes the underlying connection for read-only consumers such
// as the UI handlers.
func (t *ThriveDB) Conn() *sql.DB {
	return t.conn
}

// Tx runs fn inside a transaction, committing on success and rolling
// back if fn returns an error. This is the only explicit transaction
// boundary the handle exposes.
func (t *ThriveDB) Tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := t.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Close releases the connection. Safe to call more than once.
func (t *ThriveDB) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.items = make(map[string]*Table)
	return t.Sqlite.Close()
}

// initialize bootstraps the schema on a fresh store. Referenced tables
// are created before the tables that reference them, since foreign-key
// enforcement is on. If the metadata table already exists the store is
// assumed initialized and nothing happens.
//
// Table names are plural (a table of zero or more commits scans nicely
// as "commits") and column names singular, which keeps most of them
// clear of reserved words; the rest is handled by quoting.
func (t *ThriveDB) initialize() error {
	exists, err := t.Contains("metadata")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	// metadata, where the schema version lives. Future versions would
	// check it here and upgrade.
	table := t.Get("metadata")
	if err := t.addAttributes(table,
		Column{Name: "key", Type: "str", PrimaryKey: true},
		Column{Name: "value", Type: "str"},
	); err != nil {
		return err
	}
	if _, err := table.Append(map[string]interface{}{"key": "version", "value": SchemaVersion}); err != nil {
		return err
	}

	// The organizations table
	table = t.Get("organizations")
	if err := t.addAttributes(table,
		Column{Name: "id", Type: "int", PrimaryKey: true},
		Column{Name: "name", Type: "str"},
	); err != nil {
		return err
	}

	// The categories table, with its fixed seeded list
	table = t.Get("categories")
	if err := t.addAttributes(table,
		Column{Name: "id", Type: "int", PrimaryKey: true},
		Column{Name: "name", Type: "str"},
	); err != nil {
		return err
	}
	for _, name := range seedCategories {
		if _, err := table.Append(map[string]interface{}{"name": name}); err != nil {
			return err
		}
	}

	// The repos table
	table = t.Get("repos")
	if err := t.addAttributes(table,
		Column{Name: "id", Type: "int", PrimaryKey: true},
		Column{Name: "active", Type: "int"},
		Column{Name: "full_name", Type: "str", Index: "unique"},
		Column{Name: "organization", Type: "int", References: "organizations"},
		Column{Name: "name", Type: "str"},
		Column{Name: "archived", Type: "int"},
		Column{Name: "category", Type: "int", References: "categories"},
		Column{Name: "created_at", Type: "int"},
		Column{Name: "default_branch", Type: "str"},
		Column{Name: "description", Type: "str"},
		Column{Name: "homepage", Type: "str"},
		Column{Name: "language", Type: "str"},
		Column{Name: "license", Type: "str"},
		Column{Name: "node_id", Type: "str"},
		Column{Name: "pushed_at", Type: "int"},
		Column{Name: "updated_at", Type: "int"},
	); err != nil {
		return err
	}

	// Citations
	table = t.Get("citations")
	if err := t.addAttributes(table,
		Column{Name: "id", Type: "int", PrimaryKey: true},
		Column{Name: "citation_url", Type: "str", Index: "unique"},
		Column{Name: "n_citation_url", Type: "str"},
	); err != nil {
		return err
	}

	// Contributors
	table = t.Get("contributors")
	if err := t.addAttributes(table,
		Column{Name: "id", Type: "int", PrimaryKey: true},
		Column{Name: "name", Type: "str", Index: "unique"},
	); err != nil {
		return err
	}

	// Topics
	table = t.Get("topics")
	if err := t.addAttributes(table,
		Column{Name: "id", Type: "int", PrimaryKey: true},
		Column{Name: "name", Type: "str", Index: "unique"},
	); err != nil {
		return err
	}

	// The repos-topics join table. No uniqueness on the pair; the
	// mining logic checks existing associations before appending.
	table = t.Get("repos_topics")
	if err := t.addAttributes(table,
		Column{Name: "repo", Type: "int", References: "repos"},
		Column{Name: "topic", Type: "int", References: "topics"},
	); err != nil {
		return err
	}
	if _, err := t.conn.Exec(
		`CREATE INDEX "idx_repos_topics" ON repos_topics ("repo", "topic")`,
	); err != nil {
		return fmt.Errorf("creating repos_topics index: %w", err)
	}

	// Commits
	table = t.Get("commits")
	if err := t.addAttributes(table,
		Column{Name: "id", Type: "int", PrimaryKey: true},
		Column{Name: "sha", Type: "str", Index: "unique"},
		Column{Name: "author", Type: "int", References: "contributors"},
	); err != nil {
		return err
	}

	// The repos-commits join table
	table = t.Get("repos_commits")
	if err := t.addAttributes(table,
		Column{Name: "repo", Type: "int", References: "repos"},
		Column{Name: "commit", Type: "int", References: "commits"},
	); err != nil {
		return err
	}
	if _, err := t.conn.Exec(
		`CREATE INDEX "idx_repos_commits" ON repos_commits ("repo", "commit")`,
	); err != nil {
		return fmt.Errorf("creating repos_commits index: %w", err)
	}

	return nil
}

func (t *ThriveDB) addAttributes(table *Table, cols ...Column) error {
	for _, col := range cols {
		if err := table.AddAttribute(col); err != nil {
			return err
		}
	}
	return nil
}

// CategoryID returns the id for a category name.
func (t *ThriveDB) CategoryID(category string) (int64, error) {
	var id int64
	err := t.conn.QueryRow("SELECT id FROM categories WHERE name = ?", category).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("category %q: %w", category, ErrNotFound)
	}
	return id, err
}

// OrganizationID returns the id for an organization name.
func (t *ThriveDB) OrganizationID(organization string) (int64, error) {
	var id int64
	err := t.conn.QueryRow("SELECT id FROM organizations WHERE name = ?", organization).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("organization %q: %w", organization, ErrNotFound)
	}
	return id, err
}

// TopicID returns the id for a topic name.
func (t *ThriveDB) TopicID(topic string) (int64, error) {
	var id int64
	err := t.conn.QueryRow("SELECT id FROM topics WHERE name = ?", topic).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("topic %q: %w", topic, ErrNotFound)
	}
	return id, err
}

// RepoID returns the id for a repo. The first argument is either the
// "organization/name" full name, or just the organization when the
// repo name is given separately.
func (t *ThriveDB) RepoID(fullName string, name ...string) (int64, error) {
	fullName = combineFullName(fullName, name)

	var id int64
	err := t.conn.QueryRow("SELECT id FROM repos WHERE full_name = ?", fullName).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("repo %q: %w", fullName, ErrNotFound)
	}
	return id, err
}

// RepoTopics returns the sorted topic names associated with a repo,
// identified by full name (or organization plus name).
func (t *ThriveDB) RepoTopics(fullName string, name ...string) ([]string, error) {
	fullName = combineFullName(fullName, name)

	rows, err := t.conn.Query(
		"SELECT DISTINCT t.name FROM repos AS r, topics AS t, repos_topics AS rt"+
			" WHERE r.full_name = ? AND rt.repo = r.id AND t.id = rt.topic",
		fullName,
	)
	if err != nil {
		return nil, fmt.Errorf("reading topics of repo %q: %w", fullName, err)
	}
	return scanTopics(rows)
}

// RepoTopicsByID is RepoTopics for a repo identified by its numeric id.
func (t *ThriveDB) RepoTopicsByID(id int64) ([]string, error) {
	rows, err := t.conn.Query(
		"SELECT DISTINCT t.name FROM topics AS t, repos_topics AS rt"+
			" WHERE rt.repo = ? AND t.id = rt.topic",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("reading topics of repo %d: %w", id, err)
	}
	return scanTopics(rows)
}

func scanTopics(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		result = append(result, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(result)
	return result, nil
}

// OrganizationExists reports whether the organization is in the store.
func (t *ThriveDB) OrganizationExists(name string) (bool, error) {
	return t.exists("SELECT COUNT(*) FROM organizations WHERE name = ?", name)
}

// RepoExists reports whether the repo is in the store, with the same
// name-combination rule as RepoID.
func (t *ThriveDB) RepoExists(fullName string, name ...string) (bool, error) {
	fullName = combineFullName(fullName, name)
	return t.exists("SELECT COUNT(*) FROM repos WHERE full_name = ?", fullName)
}

// TopicExists reports whether the topic is in the store.
func (t *ThriveDB) TopicExists(topic string) (bool, error) {
	return t.exists("SELECT COUNT(*) FROM topics WHERE name = ?", topic)
}

func (t *ThriveDB) exists(query string, arg interface{}) (bool, error) {
	var count int
	if err := t.conn.QueryRow(query, arg).Scan(&count); err != nil {
		return false, err
	}
	return count != 0, nil
}

func combineFullName(fullName string, name []string) string {
	if len(name) > 0 {
		fullName += "/" + name[0]
	}
	return fullName
}
