package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "pgx"
)

// SQLAdapter stores ingested leads in MySQL or Postgres.
type SQLAdapter struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLAdapter(db *sql.DB, dialect Dialect) *SQLAdapter {
	return &SQLAdapter{db: db, dialect: dialect}
}

func (a *SQLAdapter) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS leads (
			id VARCHAR(64) PRIMARY KEY,
			session_id VARCHAR(64) NOT NULL,
			customer_name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(64) NOT NULL,
			address TEXT NOT NULL,
			notes TEXT NOT NULL,
			total BIGINT NOT NULL,
			item_count INT NOT NULL,
			currency VARCHAR(8) NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS lead_items (
			lead_id VARCHAR(64) NOT NULL,
			line_no INT NOT NULL,
			product_id VARCHAR(128) NOT NULL,
			name VARCHAR(255) NOT NULL,
			size VARCHAR(64) NOT NULL,
			firmness VARCHAR(64) NOT NULL,
			quantity INT NOT NULL,
			unit_price BIGINT NOT NULL,
			PRIMARY KEY (lead_id, line_no)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (a *SQLAdapter) SaveLead(ctx context.Context, lead domain.Lead) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, a.rebind(`
		INSERT INTO leads (id, session_id, customer_name, email, phone, address, notes, total, item_count, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		lead.ID, lead.SessionID, lead.Contact.Name, lead.Contact.Email, lead.Contact.Phone,
		lead.Contact.Address, lead.Contact.Notes, lead.Total, lead.ItemCount, lead.Currency,
		lead.CreatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return domain.ErrDuplicateLead
		}
		return fmt.Errorf("insert lead: %w", err)
	}

	insertItem := a.rebind(`
		INSERT INTO lead_items (lead_id, line_no, product_id, name, size, firmness, quantity, unit_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, item := range lead.Items {
		_, err = tx.ExecContext(ctx, insertItem,
			lead.ID, i, item.ProductID, item.Name, item.Size, item.Firmness, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert lead item: %w", err)
		}
	}

	return tx.Commit()
}

func (a *SQLAdapter) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	var lead domain.Lead
	err := a.db.QueryRowContext(ctx, a.rebind(`
		SELECT id, session_id, customer_name, email, phone, address, notes, total, item_count, currency, created_at
		FROM leads WHERE id = ?`), id,
	).Scan(&lead.ID, &lead.SessionID, &lead.Contact.Name, &lead.Contact.Email, &lead.Contact.Phone,
		&lead.Contact.Address, &lead.Contact.Notes, &lead.Total, &lead.ItemCount, &lead.Currency, &lead.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query lead: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, a.rebind(`
		SELECT product_id, name, size, firmness, quantity, unit_price
		FROM lead_items WHERE lead_id = ? ORDER BY line_no`), id)
	if err != nil {
		return nil, fmt.Errorf("query lead items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.LeadItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Size, &item.Firmness, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan lead item: %w", err)
		}
		lead.Items = append(lead.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lead items: %w", err)
	}

	return &lead, nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (a *SQLAdapter) rebind(query string) string {
	if a.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
