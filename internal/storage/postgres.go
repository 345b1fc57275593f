package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/gradgate/internal/config"
	"github.com/your-org/gradgate/internal/models"
)

// postgres error codes classified into domain errors
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// --- Students ---

// CreateStudent inserts a student without any face enrollment.
func (s *PostgresStore) CreateStudent(ctx context.Context, st *models.Student) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO students (pid, name, email, degree_name, degree_type, opt_in_biometric)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		st.PID, st.Name, st.Email, st.DegreeName, st.DegreeType, st.OptInBiometric)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return models.ErrDuplicateStudent
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// EnrollStudentWithFace inserts the student row and its face record in a single
// transaction. Either both rows exist afterwards or neither does.
func (s *PostgresStore) EnrollStudentWithFace(ctx context.Context, st *models.Student, imageRef string, embedding []float32) (*models.FaceRecord, error) {
	if len(embedding) != models.EmbeddingDim {
		return nil, models.ErrDimensionMismatch
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin enroll tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO students (pid, name, email, degree_name, degree_type, opt_in_biometric)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		st.PID, st.Name, st.Email, st.DegreeName, st.DegreeType, st.OptInBiometric)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return nil, models.ErrDuplicateStudent
		}
		return nil, fmt.Errorf("insert student: %w", err)
	}

	fr := &models.FaceRecord{
		ID:        uuid.New(),
		StudentID: st.PID,
		ImageRef:  imageRef,
		Embedding: embedding,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO face_records (id, student_id, image_ref, embedding)
		 VALUES ($1, $2, $3, $4) RETURNING created_at`,
		fr.ID, fr.StudentID, fr.ImageRef, pgvector.NewVector(embedding),
	).Scan(&fr.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert face record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit enroll tx: %w", err)
	}
	return fr, nil
}

func (s *PostgresStore) GetStudent(ctx context.Context, pid string) (*models.Student, error) {
	st := &models.Student{}
	err := s.pool.QueryRow(ctx,
		`SELECT pid, name, email, degree_name, degree_type, opt_in_biometric
		 FROM students WHERE pid = $1`, pid,
	).Scan(&st.PID, &st.Name, &st.Email, &st.DegreeName, &st.DegreeType, &st.OptInBiometric)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) ListStudents(ctx context.Context) ([]models.Student, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT pid, name, email, degree_name, degree_type, opt_in_biometric
		 FROM students ORDER BY pid`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var st models.Student
		if err := rows.Scan(&st.PID, &st.Name, &st.Email, &st.DegreeName, &st.DegreeType, &st.OptInBiometric); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// DeleteStudent removes a student; face records and queue entries go with it
// via cascade. The image refs of the deleted face records are returned so the
// caller can clean up the blobs.
func (s *PostgresStore) DeleteStudent(ctx context.Context, pid string) ([]string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT image_ref FROM face_records WHERE student_id = $1`, pid)
	if err != nil {
		return nil, fmt.Errorf("select face refs: %w", err)
	}
	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan face ref: %w", err)
		}
		refs = append(refs, ref)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate face refs: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM students WHERE pid = $1`, pid)
	if err != nil {
		return nil, fmt.Errorf("delete student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, models.ErrStudentNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit delete tx: %w", err)
	}
	return refs, nil
}

// --- Reference data ---

func (s *PostgresStore) ListCeremonies(ctx context.Context) ([]models.Ceremony, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, date_time, location FROM ceremonies ORDER BY date_time`)
	if err != nil {
		return nil, fmt.Errorf("list ceremonies: %w", err)
	}
	defer rows.Close()

	var ceremonies []models.Ceremony
	for rows.Next() {
		var c models.Ceremony
		if err := rows.Scan(&c.ID, &c.Name, &c.DateTime, &c.Location); err != nil {
			return nil, fmt.Errorf("scan ceremony: %w", err)
		}
		ceremonies = append(ceremonies, c)
	}
	return ceremonies, rows.Err()
}

func (s *PostgresStore) ListDegrees(ctx context.Context) ([]models.Degree, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, ceremony_id FROM degrees ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list degrees: %w", err)
	}
	defer rows.Close()

	var degrees []models.Degree
	for rows.Next() {
		var d models.Degree
		if err := rows.Scan(&d.Name, &d.CeremonyID); err != nil {
			return nil, fmt.Errorf("scan degree: %w", err)
		}
		degrees = append(degrees, d)
	}
	return degrees, rows.Err()
}

// CeremonyForStudent resolves which ceremony a student belongs to through
// their degree assignment.
func (s *PostgresStore) CeremonyForStudent(ctx context.Context, pid string) (int64, error) {
	var degreeName *string
	err := s.pool.QueryRow(ctx,
		`SELECT degree_name FROM students WHERE pid = $1`, pid,
	).Scan(&degreeName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrStudentNotFound
		}
		return 0, fmt.Errorf("get student degree: %w", err)
	}
	if degreeName == nil {
		return 0, models.ErrDegreeHasNoCeremony
	}

	var ceremonyID *int64
	err = s.pool.QueryRow(ctx,
		`SELECT ceremony_id FROM degrees WHERE name = $1`, *degreeName,
	).Scan(&ceremonyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrDegreeHasNoCeremony
		}
		return 0, fmt.Errorf("get degree ceremony: %w", err)
	}
	if ceremonyID == nil {
		return 0, models.ErrDegreeHasNoCeremony
	}
	return *ceremonyID, nil
}

// --- Face records ---

func (s *PostgresStore) AddFaceRecord(ctx context.Context, studentID, imageRef string, embedding []float32) (*models.FaceRecord, error) {
	if len(embedding) != models.EmbeddingDim {
		return nil, models.ErrDimensionMismatch
	}

	fr := &models.FaceRecord{
		ID:        uuid.New(),
		StudentID: studentID,
		ImageRef:  imageRef,
		Embedding: embedding,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO face_records (id, student_id, image_ref, embedding)
		 VALUES ($1, $2, $3, $4) RETURNING created_at`,
		fr.ID, fr.StudentID, fr.ImageRef, pgvector.NewVector(embedding),
	).Scan(&fr.CreatedAt)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return nil, models.ErrStudentNotFound
		}
		return nil, fmt.Errorf("add face record: %w", err)
	}
	return fr, nil
}

// NearestFace returns the enrolled record closest to the probe by cosine
// distance, along with that distance. No similarity cutoff is applied; the
// caller decides what to do with a far-away match.
func (s *PostgresStore) NearestFace(ctx context.Context, probe []float32) (*models.FaceRecord, float64, error) {
	if len(probe) != models.EmbeddingDim {
		return nil, 0, models.ErrDimensionMismatch
	}

	vec := pgvector.NewVector(probe)
	fr := &models.FaceRecord{}
	var distance float64
	err := s.pool.QueryRow(ctx,
		`SELECT id, student_id, image_ref, created_at, embedding <=> $1 AS distance
		 FROM face_records
		 ORDER BY embedding <=> $1
		 LIMIT 1`, vec,
	).Scan(&fr.ID, &fr.StudentID, &fr.ImageRef, &fr.CreatedAt, &distance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, models.ErrEmptyFaceStore
		}
		return nil, 0, fmt.Errorf("nearest face: %w", err)
	}
	return fr, distance, nil
}

func (s *PostgresStore) CountFaceRecords(ctx context.Context, studentID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM face_records WHERE student_id = $1`, studentID,
	).Scan(&count)
	return count, err
}

// --- Check-in queue ---

func (s *PostgresStore) Enqueue(ctx context.Context, pid string, ceremonyID int64) (*models.QueueEntry, error) {
	entry := &models.QueueEntry{
		StudentID:  pid,
		CeremonyID: ceremonyID,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO checkin_queue (student_id, ceremony_id)
		 VALUES ($1, $2) RETURNING time_queued, status`,
		pid, ceremonyID,
	).Scan(&entry.TimeQueued, &entry.Status)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return nil, models.ErrAlreadyQueued
		}
		if isPgError(err, pgForeignKeyViolation) {
			return nil, models.ErrStudentNotFound
		}
		return nil, fmt.Errorf("enqueue: %w", err)
	}
	return entry, nil
}

// DequeueNext picks the oldest pending entry for the ceremony and flips it to
// called, returning the student. The row is selected FOR UPDATE SKIP LOCKED:
// entries locked by a concurrent dequeue are invisible here, so two stations
// can never call the same student, and neither blocks the other.
func (s *PostgresStore) DequeueNext(ctx context.Context, ceremonyID int64) (*models.Student, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin dequeue tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var pid string
	err = tx.QueryRow(ctx,
		`SELECT student_id
		 FROM checkin_queue
		 WHERE ceremony_id = $1 AND status = 'pending'
		 ORDER BY time_queued, student_id
		 FOR UPDATE SKIP LOCKED
		 LIMIT 1`, ceremonyID,
	).Scan(&pid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrQueueEmpty
		}
		return nil, fmt.Errorf("select next pending: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE checkin_queue
		 SET status = 'called', called_at = now()
		 WHERE student_id = $1 AND ceremony_id = $2`,
		pid, ceremonyID)
	if err != nil {
		return nil, fmt.Errorf("mark called: %w", err)
	}

	st := &models.Student{}
	err = tx.QueryRow(ctx,
		`SELECT pid, name, email, degree_name, degree_type, opt_in_biometric
		 FROM students WHERE pid = $1`, pid,
	).Scan(&st.PID, &st.Name, &st.Email, &st.DegreeName, &st.DegreeType, &st.OptInBiometric)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStudentNotFound
		}
		return nil, fmt.Errorf("get called student: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit dequeue tx: %w", err)
	}
	return st, nil
}

// QueueEntries returns the ceremony's entries in the given state, FIFO order.
func (s *PostgresStore) QueueEntries(ctx context.Context, ceremonyID int64, status models.QueueStatus) ([]models.QueuePosition, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT q.student_id, s.name, s.degree_name, s.degree_type, q.time_queued
		 FROM checkin_queue q
		 JOIN students s ON s.pid = q.student_id
		 WHERE q.ceremony_id = $1 AND q.status = $2
		 ORDER BY q.time_queued, q.student_id`,
		ceremonyID, status)
	if err != nil {
		return nil, fmt.Errorf("queue entries: %w", err)
	}
	defer rows.Close()

	var entries []models.QueuePosition
	for rows.Next() {
		var p models.QueuePosition
		if err := rows.Scan(&p.StudentID, &p.Name, &p.DegreeName, &p.DegreeType, &p.TimeQueued); err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		entries = append(entries, p)
	}
	return entries, rows.Err()
}
