package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrUserExists = errors.New("user already exists")
)

// Record is one saved voltage drop calculation.
type Record struct {
	ID            int       `json:"id"`
	CreatedAt     time.Time `json:"timestamp"`
	VoltageSystem string    `json:"voltage_system"`
	KVAPerHouse   float64   `json:"kva_per_house"`
	Houses        int       `json:"number_of_houses"`
	Diversity     float64   `json:"diversity_factor"`
	TotalKVA      float64   `json:"total_kva"`
	CurrentA      float64   `json:"current_a"`
	CableSize     float64   `json:"cable_size"`
	Material      string    `json:"conductor"`
	Cores         string    `json:"core_type"`
	LengthM       float64   `json:"length_m"`
	DropV         float64   `json:"voltage_drop_v"`
	DropPercent   float64   `json:"drop_percent"`
	ADMD          bool      `json:"admd_enabled"`
}

type Repository interface {
	CreateUser(ctx context.Context, login, email, password string) (int, error)
	// GetByLogin returns ErrNotFound when no such user exists.
	GetByLogin(ctx context.Context, login string) (int, string, error)
	SaveCalculation(ctx context.Context, userID int, rec Record) (int, error)
	ListCalculations(ctx context.Context, userID, limit int) ([]Record, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateUser(ctx context.Context, login, email, password string) (int, error) {
	var id int
	query := "INSERT INTO users (login, email, password) VALUES ($1, $2, $3) RETURNING id"
	err := r.db.QueryRowContext(ctx, query, login, email, password).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrUserExists
	}
	return id, err
}

func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (int, string, error) {
	var id int
	var hash string

	query := "SELECT id, password FROM users WHERE login=$1"

	err := r.db.QueryRowContext(ctx, query, login).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", ErrNotFound
		}
		return 0, "", err
	}
	return id, hash, nil
}

func (r *PostgresRepository) SaveCalculation(ctx context.Context, userID int, rec Record) (int, error) {
	var id int
	query := `INSERT INTO calculations
		(user_id, created_at, voltage_system, kva_per_house, houses, diversity, total_kva,
		 current_a, cable_size, material, cores, length_m, drop_v, drop_percent, admd)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		userID, rec.CreatedAt, rec.VoltageSystem, rec.KVAPerHouse, rec.Houses, rec.Diversity,
		rec.TotalKVA, rec.CurrentA, rec.CableSize, rec.Material, rec.Cores, rec.LengthM,
		rec.DropV, rec.DropPercent, rec.ADMD,
	).Scan(&id)
	return id, err
}

func (r *PostgresRepository) ListCalculations(ctx context.Context, userID, limit int) ([]Record, error) {
	query := `SELECT id, created_at, voltage_system, kva_per_house, houses, diversity, total_kva,
		current_a, cable_size, material, cores, length_m, drop_v, drop_percent, admd
		FROM calculations WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.VoltageSystem, &rec.KVAPerHouse,
			&rec.Houses, &rec.Diversity, &rec.TotalKVA, &rec.CurrentA, &rec.CableSize,
			&rec.Material, &rec.Cores, &rec.LengthM, &rec.DropV, &rec.DropPercent, &rec.ADMD); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
