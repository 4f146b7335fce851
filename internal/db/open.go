package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Config points either at a local sqlite file or at a remote libsql server.
type Config struct {
	File      string `json:"file" env:"DB_FILE"`
	Url       string `json:"url" env:"DB_URL"`
	AuthToken string `json:"auth_token" env:"DB_AUTH_TOKEN"`
}

// OpenDB opens the database and makes sure the schema exists.
func (config Config) OpenDB() (*sql.DB, error) {
	var database *sql.DB
	var err error

	switch {
	case config.Url != "":
		values := url.Values{}
		if config.AuthToken != "" {
			values.Add("authToken", config.AuthToken)
		}
		dsn := config.Url
		if len(values) > 0 {
			dsn += "?" + values.Encode()
		}
		database, err = sql.Open("libsql", dsn)
	case config.File != "":
		database, err = sql.Open("sqlite", config.File)
	default:
		return nil, fmt.Errorf("neither a database file nor url was specified")
	}
	if err != nil {
		return nil, err
	}

	if config.Url == "" && (config.File == ":memory:" || strings.Contains(config.File, "mode=memory")) {
		// every connection to :memory: is a different database
		database.SetMaxOpenConns(1)
	}

	_, err = database.Exec(Schema)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return database, nil
}
