package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/shenikar/resq_dispatch/internal/service"
)

const incidentCacheTTL = 5 * time.Minute

// IncidentRepository хранит инциденты в PostgreSQL, документ целиком лежит в JSONB.
// Redis используется как кэш отдельных инцидентов, клиент может быть nil.
type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
	}
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	doc, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident: %w", err)
	}

	query := `
		INSERT INTO incidents (id, status, type, priority, barangay, created_at, updated_at, document)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err = r.db.Exec(ctx, query,
		incident.ID,
		incident.Status,
		incident.Type,
		incident.Priority,
		incident.Location.Barangay,
		incident.CreatedAt,
		incident.UpdatedAt,
		doc,
	)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID возвращает инцидент по ID, сначала проверяя кэш
func (r *IncidentRepository) GetByID(ctx context.Context, id string) (*models.Incident, error) {
	if cached, err := r.GetIncidentFromCache(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	var doc []byte
	err := r.db.QueryRow(ctx, `SELECT document FROM incidents WHERE id = $1;`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s: %w", id, models.ErrIncidentNotFound)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(doc, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident document: %w", err)
	}

	// Ошибка кэша не должна ломать чтение
	_ = r.SetIncidentCache(ctx, incident)
	return incident, nil
}

func (r *IncidentRepository) Update(ctx context.Context, incident *models.Incident) error {
	doc, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident: %w", err)
	}

	query := `
		UPDATE incidents SET
			status = $1,
			type = $2,
			priority = $3,
			barangay = $4,
			updated_at = $5,
			document = $6
		WHERE id = $7;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		incident.Status,
		incident.Type,
		incident.Priority,
		incident.Location.Barangay,
		incident.UpdatedAt,
		doc,
		incident.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update incident: %w", err)
	}

	// Если RowsAffected() == 0, значит инцидента с таким id не существует
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %s not found for update: %w", incident.ID, models.ErrIncidentNotFound)
	}

	if err := r.InvalidateIncidentCache(ctx, incident.ID); err != nil {
		return err
	}
	return nil
}

// ListIncidents возвращает все инциденты, новые первыми
func (r *IncidentRepository) ListIncidents(ctx context.Context) ([]*models.Incident, error) {
	rows, err := r.db.Query(ctx, `SELECT document FROM incidents ORDER BY created_at DESC, id DESC;`)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incident := &models.Incident{}
		if err := json.Unmarshal(doc, incident); err != nil {
			return nil, fmt.Errorf("failed to unmarshal incident document: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// NextSequence возвращает следующий номер для ID вида INC-0001
func (r *IncidentRepository) NextSequence(ctx context.Context) (int, error) {
	query := `
		SELECT COALESCE(MAX(CAST(SUBSTRING(id FROM 5) AS INTEGER)), 0) + 1
		FROM incidents
		WHERE id ~ '^INC-[0-9]+$';
	`
	var next int
	if err := r.db.QueryRow(ctx, query).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to get next incident sequence: %w", err)
	}
	return next, nil
}

// GetIncidentFromCache пытается получить инцидент из Redis
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id string) (*models.Incident, error) {
	if r.redisClient == nil {
		return nil, nil
	}
	val, err := r.redisClient.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis на 5 минут
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	if r.redisClient == nil {
		return nil
	}
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, cacheKey(incident.ID), val, incidentCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id string) error {
	if r.redisClient == nil {
		return nil
	}
	if err := r.redisClient.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}

func cacheKey(id string) string {
	return fmt.Sprintf("incident:%s", id)
}
