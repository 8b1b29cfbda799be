package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// SQLite implements Store on a local SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// pending schema migrations.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite works best with a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable. Used by the health endpoint.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func initSchema(db *sql.DB) error {
	migrationsTable := `
	CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version INTEGER NOT NULL UNIQUE,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(migrationsTable); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var currentVersion int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("check migration version: %w", err)
	}

	if currentVersion < 1 {
		if err := applyMigration1(db); err != nil {
			return fmt.Errorf("apply migration 1: %w", err)
		}
	}
	return nil
}

// applyMigration1 creates the initial schema.
func applyMigration1(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	tables := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'USER',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE meal_plans (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			price REAL NOT NULL,
			calories INTEGER NOT NULL DEFAULT 0,
			duration TEXT NOT NULL DEFAULT '',
			features TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE subscriptions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			plan_id TEXT NOT NULL,
			meal_types TEXT NOT NULL DEFAULT '[]',
			delivery_days TEXT NOT NULL DEFAULT '[]',
			allergies TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (plan_id) REFERENCES meal_plans(id)
		);`,
		`CREATE TABLE testimonials (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			meal_plan_id TEXT NOT NULL,
			rating INTEGER NOT NULL,
			message TEXT NOT NULL,
			date TIMESTAMP NOT NULL,
			UNIQUE (user_id, meal_plan_id),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (meal_plan_id) REFERENCES meal_plans(id)
		);`,
		`CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);`,
	}
	for _, ddl := range tables {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX idx_subscriptions_user ON subscriptions(user_id, created_at DESC);",
		"CREATE INDEX idx_testimonials_plan ON testimonials(meal_plan_id);",
		"CREATE INDEX idx_sessions_user ON sessions(user_id);",
		"CREATE INDEX idx_sessions_expires ON sessions(expires_at);",
	}
	for _, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	if _, err := tx.Exec("INSERT INTO migrations (version) VALUES (1)"); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}

// encodeStrings serializes a string slice as JSON for a TEXT column.
func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode string list: %w", err)
	}
	return string(data), nil
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decode string list: %w", err)
	}
	return values, nil
}

// --- Users ---

func (s *SQLite) CreateUser(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password, phone, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.Password, u.Phone, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLite) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password, phone, role, created_at, updated_at
		FROM users WHERE email = ?`, email))
}

func (s *SQLite) UserByID(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password, phone, role, created_at, updated_at
		FROM users WHERE id = ?`, id))
}

func (s *SQLite) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// --- MealPlans ---

func (s *SQLite) CreateMealPlan(ctx context.Context, p *MealPlan) error {
	features, err := encodeStrings(p.Features)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO meal_plans (id, name, description, price, calories, duration, features, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Calories, p.Duration, features, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert meal plan: %w", err)
	}
	return nil
}

func (s *SQLite) MealPlanByID(ctx context.Context, id string) (*MealPlan, error) {
	var (
		p        MealPlan
		features string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, calories, duration, features, created_at, updated_at
		FROM meal_plans WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Calories, &p.Duration, &features, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("meal plan: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan meal plan: %w", err)
	}
	if p.Features, err = decodeStrings(features); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLite) ListMealPlans(ctx context.Context) ([]MealPlan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, price, calories, duration, features, created_at, updated_at
		FROM meal_plans ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query meal plans: %w", err)
	}
	defer rows.Close()

	plans := []MealPlan{}
	for rows.Next() {
		var (
			p        MealPlan
			features string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Calories, &p.Duration, &features, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan meal plan: %w", err)
		}
		if p.Features, err = decodeStrings(features); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// --- Subscriptions ---

func (s *SQLite) CreateSubscription(ctx context.Context, sub *Subscription) error {
	mealTypes, err := encodeStrings(sub.MealTypes)
	if err != nil {
		return err
	}
	deliveryDays, err := encodeStrings(sub.DeliveryDays)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, user_id, plan_id, meal_types, delivery_days, allergies, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.PlanID, mealTypes, deliveryDays, sub.Allergies, sub.Status, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (s *SQLite) SubscriptionByID(ctx context.Context, id string) (*Subscription, error) {
	var (
		sub          Subscription
		mealTypes    string
		deliveryDays string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, plan_id, meal_types, delivery_days, allergies, status, created_at, updated_at
		FROM subscriptions WHERE id = ?`, id).
		Scan(&sub.ID, &sub.UserID, &sub.PlanID, &mealTypes, &deliveryDays, &sub.Allergies, &sub.Status, &sub.CreatedAt, &sub.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("subscription: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	if sub.MealTypes, err = decodeStrings(mealTypes); err != nil {
		return nil, err
	}
	if sub.DeliveryDays, err = decodeStrings(deliveryDays); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *SQLite) ListSubscriptions(ctx context.Context, userID string) ([]SubscriptionDetail, error) {
	query := `
		SELECT s.id, s.user_id, s.plan_id, s.meal_types, s.delivery_days, s.allergies, s.status, s.created_at, s.updated_at,
		       p.id, p.name, p.price, p.description,
		       u.id, u.name, u.email
		FROM subscriptions s
		JOIN meal_plans p ON p.id = s.plan_id
		JOIN users u ON u.id = s.user_id`
	args := []any{}
	if userID != "" {
		query += " WHERE s.user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY s.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []SubscriptionDetail{}
	for rows.Next() {
		var (
			d            SubscriptionDetail
			mealTypes    string
			deliveryDays string
		)
		err := rows.Scan(
			&d.ID, &d.UserID, &d.PlanID, &mealTypes, &deliveryDays, &d.Allergies, &d.Status, &d.CreatedAt, &d.UpdatedAt,
			&d.MealPlan.ID, &d.MealPlan.Name, &d.MealPlan.Price, &d.MealPlan.Description,
			&d.User.ID, &d.User.Name, &d.User.Email,
		)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		if d.MealTypes, err = decodeStrings(mealTypes); err != nil {
			return nil, err
		}
		if d.DeliveryDays, err = decodeStrings(deliveryDays); err != nil {
			return nil, err
		}
		subs = append(subs, d)
	}
	return subs, rows.Err()
}

func (s *SQLite) UpdateSubscription(ctx context.Context, sub *Subscription) error {
	mealTypes, err := encodeStrings(sub.MealTypes)
	if err != nil {
		return err
	}
	deliveryDays, err := encodeStrings(sub.DeliveryDays)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET plan_id = ?, meal_types = ?, delivery_days = ?, allergies = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		sub.PlanID, mealTypes, deliveryDays, sub.Allergies, sub.Status, sub.UpdatedAt, sub.ID)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subscription: %w", ErrNotFound)
	}
	return nil
}

func (s *SQLite) DeleteSubscription(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subscription: %w", ErrNotFound)
	}
	return nil
}

// --- Testimonials ---

func (s *SQLite) CreateTestimonial(ctx context.Context, t *Testimonial) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO testimonials (id, user_id, meal_plan_id, rating, message, date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.MealPlanID, t.Rating, t.Message, t.Date)
	if err != nil {
		return fmt.Errorf("insert testimonial: %w", err)
	}
	return nil
}

func (s *SQLite) TestimonialByUserAndPlan(ctx context.Context, userID, mealPlanID string) (*Testimonial, error) {
	var t Testimonial
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, meal_plan_id, rating, message, date
		FROM testimonials WHERE user_id = ? AND meal_plan_id = ?`, userID, mealPlanID).
		Scan(&t.ID, &t.UserID, &t.MealPlanID, &t.Rating, &t.Message, &t.Date)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("testimonial: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan testimonial: %w", err)
	}
	return &t, nil
}

func (s *SQLite) ListTestimonials(ctx context.Context) ([]TestimonialDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.meal_plan_id, t.rating, t.message, t.date, u.name, p.name
		FROM testimonials t
		JOIN users u ON u.id = t.user_id
		JOIN meal_plans p ON p.id = t.meal_plan_id
		ORDER BY t.date DESC`)
	if err != nil {
		return nil, fmt.Errorf("query testimonials: %w", err)
	}
	defer rows.Close()

	out := []TestimonialDetail{}
	for rows.Next() {
		var d TestimonialDetail
		if err := rows.Scan(&d.ID, &d.UserID, &d.MealPlanID, &d.Rating, &d.Message, &d.Date, &d.UserName, &d.MealPlanName); err != nil {
			return nil, fmt.Errorf("scan testimonial: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- Sessions ---

func (s *SQLite) CreateSession(ctx context.Context, sess *Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		sess.Token, sess.UserID, sess.ExpiresAt, sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SQLite) SessionByToken(ctx context.Context, token string) (*Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT token, user_id, expires_at, created_at
		FROM sessions WHERE token = ?`, token).
		Scan(&sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &sess, nil
}

func (s *SQLite) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry, returning the
// number removed. Run it periodically from the server lifecycle.
func (s *SQLite) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", time.Now())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
