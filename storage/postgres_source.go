package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"listing-analytics/config"
	"listing-analytics/models"
	"listing-analytics/utils"
)

// pgConn is a pooled PostgreSQL handle
type pgConn struct {
	db *sql.DB
}

// IsPrimary reports false while the server is a standby replaying WAL
func (c *pgConn) IsPrimary(ctx context.Context) (bool, error) {
	var primary bool
	if err := c.db.QueryRowContext(ctx, "SELECT NOT pg_is_in_recovery()").Scan(&primary); err != nil {
		return false, errors.WithStack(err)
	}
	return primary, nil
}

func (c *pgConn) Close(ctx context.Context) error {
	return c.db.Close()
}

// NewPostgresDialer returns a DialFunc that opens and pings a pool
func NewPostgresDialer(connStr string) DialFunc {
	return func(ctx context.Context) (Connection, error) {
		db, err := sql.Open("postgres", connStr)
		if err != nil {
			return nil, errors.Wrap(err, "open DB")
		}

		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(time.Minute * 5)

		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "ping DB")
		}
		return &pgConn{db: db}, nil
	}
}

// PostgresSource reads listings stored one JSONB document per row, in a
// table named after the collection with a single "doc" column
type PostgresSource struct {
	conn   *pgConn
	table  string
	logger *utils.Logger
}

// OpenPostgresSource acquires a pool with the configured strategy
func OpenPostgresSource(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*PostgresSource, error) {
	strategy, err := ParseStrategy(cfg.ConnectStrategy)
	if err != nil {
		return nil, err
	}

	conn, err := Acquire(ctx, NewPostgresDialer(cfg.DatabaseURL), AcquireOptions{
		Strategy:   strategy,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelayDuration(),
	}, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Connected to PostgreSQL successfully (%s)", strategy)
	return NewPostgresSource(conn.(*pgConn).db, cfg.Collection, logger), nil
}

// NewPostgresSource wraps an existing pool
func NewPostgresSource(db *sql.DB, table string, logger *utils.Logger) *PostgresSource {
	return &PostgresSource{conn: &pgConn{db: db}, table: table, logger: logger}
}

// Find selects the projected fields of every matching document
func (s *PostgresSource) Find(ctx context.Context, q models.Query) ([]models.Document, error) {
	query, args, err := s.buildSelect(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query listings")
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.Wrap(err, "scan listing")
		}

		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		doc := models.Document{}
		if err := dec.Decode(&doc); err != nil {
			s.logger.Warn("Skipping undecodable document: %v", err)
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate listings")
	}

	s.logger.Debug("Fetched %d rows from %s", len(docs), s.table)
	return docs, nil
}

// EstimatedCount returns the exact row count of the table
func (s *PostgresSource) EstimatedCount(ctx context.Context) (int64, error) {
	var n int64
	query := "SELECT count(*) FROM " + pq.QuoteIdentifier(s.table)
	if err := s.conn.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count listings")
	}
	return n, nil
}

// Close closes the pool
func (s *PostgresSource) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

func (s *PostgresSource) buildSelect(q models.Query) (string, []interface{}, error) {
	selectExpr := "doc"
	if len(q.Projection) > 0 {
		parts := make([]string, 0, len(q.Projection))
		for _, f := range q.Projection {
			lit := pq.QuoteLiteral(f)
			parts = append(parts, fmt.Sprintf("%s, doc->%s", lit, lit))
		}
		selectExpr = "jsonb_build_object(" + strings.Join(parts, ", ") + ")"
	}

	var (
		clauses []string
		args    []interface{}
	)
	param := func(v interface{}) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", errors.Wrapf(err, "encode filter value %v", v)
		}
		args = append(args, string(b))
		return fmt.Sprintf("$%d::jsonb", len(args)), nil
	}

	for _, c := range q.Filter {
		field := pq.QuoteLiteral(c.Field)
		switch c.Op {
		case models.OpExists:
			clauses = append(clauses, fmt.Sprintf("doc ? %s", field))

		case models.OpEq:
			p, err := param(c.Values[0])
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, fmt.Sprintf("doc->%s = %s", field, p))

		case models.OpNotIn:
			excludeNull := false
			var placeholders []string
			for _, v := range c.Values {
				if v == nil {
					excludeNull = true
					continue
				}
				p, err := param(v)
				if err != nil {
					return "", nil, err
				}
				placeholders = append(placeholders, p)
			}

			notIn := ""
			if len(placeholders) > 0 {
				notIn = fmt.Sprintf("doc->%s NOT IN (%s)", field, strings.Join(placeholders, ", "))
			}
			switch {
			case excludeNull && notIn != "":
				clauses = append(clauses, fmt.Sprintf("(doc ? %s AND doc->%s <> 'null'::jsonb AND %s)", field, field, notIn))
			case excludeNull:
				clauses = append(clauses, fmt.Sprintf("(doc ? %s AND doc->%s <> 'null'::jsonb)", field, field))
			case notIn != "":
				clauses = append(clauses, fmt.Sprintf("(NOT doc ? %s OR %s)", field, notIn))
			}
		}
	}

	query := fmt.Sprintf("SELECT %s FROM %s", selectExpr, pq.QuoteIdentifier(s.table))
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	return query, args, nil
}
