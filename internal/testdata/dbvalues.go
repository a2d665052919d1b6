package testdata

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/denisenkom/go-mssqldb" // for sqlserver
	_ "github.com/go-sql-driver/mysql"   // for mysql
	_ "github.com/lib/pq"                // for postgres

	"api-param-coverage/internal/coverage"
)

// DBConfig holds database connection configuration
type DBConfig struct {
	Type     string
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ValueProvider fills empty parameter value lists in a collection with
// distinct values observed in the database, so generated scenarios exercise
// data the system actually contains instead of the <default> sentinel.
type ValueProvider struct {
	config    DBConfig
	db        *sql.DB
	maxValues int
}

// NewValueProvider creates a new ValueProvider.
func NewValueProvider(config DBConfig) *ValueProvider {
	return &ValueProvider{
		config:    config,
		maxValues: 5,
	}
}

// Connect establishes the database connection.
func (p *ValueProvider) Connect() error {
	var dsn string
	switch p.config.Type {
	case "postgres":
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			p.config.Host, p.config.Port, p.config.User, p.config.Password, p.config.Database)
	case "mysql":
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
			p.config.User, p.config.Password, p.config.Host, p.config.Port, p.config.Database)
	case "sqlserver":
		dsn = fmt.Sprintf("server=%s;port=%d;user id=%s;password=%s;database=%s",
			p.config.Host, p.config.Port, p.config.User, p.config.Password, p.config.Database)
	default:
		return fmt.Errorf("unsupported database type: %s", p.config.Type)
	}

	db, err := sql.Open(p.config.Type, dsn)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		return err
	}

	p.db = db
	return nil
}

// Close closes the database connection.
func (p *ValueProvider) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Enrich fills empty value lists across the collection. Lookup failures
// are reported per field and never abort the pass.
func (p *ValueProvider) Enrich(collection *coverage.Collection) []string {
	var warnings []string

	for ai := range collection.APIs {
		api := &collection.APIs[ai]
		for ei := range api.Endpoints {
			endpoint := &api.Endpoints[ei]
			table := tableNameFromPath(endpoint.Path)
			if table == "" {
				continue
			}

			sections := []map[string]coverage.ParamEntry{
				endpoint.ParamSpace.Query,
				endpoint.ParamSpace.Body,
			}
			for _, section := range sections {
				for field, entry := range section {
					if len(entry.Values) > 0 {
						continue
					}
					values, err := p.distinctValues(table, columnNameFromField(field))
					if err != nil {
						warnings = append(warnings, fmt.Sprintf("%s %s: %s: %v", endpoint.Method, endpoint.Path, field, err))
						continue
					}
					if len(values) > 0 {
						entry.Values = values
						section[field] = entry
					}
				}
			}
		}
	}

	return warnings
}

// distinctValues queries up to maxValues distinct values of one column.
func (p *ValueProvider) distinctValues(table, column string) ([]interface{}, error) {
	if !validIdentifier(table) || !validIdentifier(column) {
		return nil, fmt.Errorf("invalid identifier %s.%s", table, column)
	}

	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL LIMIT %d",
		column, table, column, p.maxValues)
	if p.config.Type == "sqlserver" {
		query = fmt.Sprintf("SELECT DISTINCT TOP %d %s FROM %s WHERE %s IS NOT NULL",
			p.maxValues, column, table, column)
	}

	rows, err := p.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %v", err)
	}
	defer rows.Close()

	var values []interface{}
	for rows.Next() {
		var v interface{}
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan failed: %v", err)
		}
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// tableNameFromPath guesses the backing table from the last non-template
// path segment, e.g. /api/users/{id} -> users.
func tableNameFromPath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		s := segments[i]
		if s != "" && !strings.HasPrefix(s, "{") {
			return strings.ToLower(s)
		}
	}
	return ""
}

// columnNameFromField maps a dotted body field to its column, e.g.
// address.city -> city.
func columnNameFromField(field string) string {
	parts := strings.Split(field, ".")
	return parts[len(parts)-1]
}

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return false
		}
	}
	return true
}
