package session

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/bigkaa/dicri-console/internal/domain/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MemoryPath — путь SQLite in-memory базы (слот живёт до остановки процесса).
const MemoryPath = ":memory:"

// SQLiteStore — Store поверх локальной SQLite-базы.
// Значение слота зашифровано Sealer.
type SQLiteStore struct {
	db     *sql.DB
	sealer *Sealer
	logger *slog.Logger
}

// OpenSQLite открывает базу, применяет миграции и возвращает SQLiteStore.
func OpenSQLite(path string, sealer *Sealer, logger *slog.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("не задан путь к базе сессии")
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("открытие базы сессии: %w", err)
	}
	// Один слот и один процесс: для :memory: все запросы должны идти
	// через одно соединение.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("подключение к базе сессии: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		sealer: sealer,
		logger: logger.With(slog.String("component", "session_store")),
	}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	store.logger.Info("База сессии открыта", slog.String("path", path))
	return store, nil
}

func dsn(path string) string {
	if path == MemoryPath {
		return path + "?_pragma=busy_timeout(5000)"
	}
	return filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// migrate применяет SQL-миграции из embedded FS.
func (s *SQLiteStore) migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ошибка создания источника миграций: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("ошибка инициализации драйвера миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	s.logger.Debug("Миграции базы сессии применены",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// Load реализует Store.
// Слот, который не удаётся расшифровать, считается пустым и очищается.
func (s *SQLiteStore) Load(ctx context.Context) (*model.Actor, error) {
	var sealed string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM local_storage WHERE key = ?`, SlotKey,
	).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение слота сессии: %w", err)
	}

	actor, err := s.sealer.Open(sealed)
	if err != nil {
		s.logger.Warn("Слот сессии повреждён, сессия сброшена",
			slog.String("error", err.Error()),
		)
		if clearErr := s.Clear(ctx); clearErr != nil {
			return nil, clearErr
		}
		return nil, nil
	}
	return actor, nil
}

// Save реализует Store.
func (s *SQLiteStore) Save(ctx context.Context, actor *model.Actor) error {
	sealed, err := s.sealer.Seal(actor)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		SlotKey, sealed, time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("запись слота сессии: %w", err)
	}
	return nil
}

// Clear реализует Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, SlotKey); err != nil {
		return fmt.Errorf("очистка слота сессии: %w", err)
	}
	return nil
}

// CheckReady реализует handlers.ReadinessChecker.
func (s *SQLiteStore) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return "fail", fmt.Sprintf("база сессии недоступна: %v", err)
	}
	return "ok", "база сессии доступна"
}

// Close закрывает базу.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
