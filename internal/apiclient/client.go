// Пакет apiclient — HTTP-клиент удалённого DICRI API.
// Поддерживает TLS с кастомным CA (DC_API_CA_CERT_PATH).
// Каждый вызов — ровно один HTTP-запрос: повторов нет, ошибка возвращается вызывающему.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// maxErrorBody — сколько байт тела ошибки читается для сообщения.
const maxErrorBody = 64 << 10

// Prometheus-метрики обращений к удалённому API.
var (
	remoteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dc_remote_requests_total",
		Help: "Общее количество запросов к DICRI API.",
	}, []string{"operation", "status"})
	remoteRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dc_remote_request_duration_seconds",
		Help:    "Длительность запросов к DICRI API.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// Ack — подтверждение операции записи ({message, error}).
type Ack struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIError — ответ API с кодом вне 2xx.
type APIError struct {
	// Operation — имя операции клиента (ListExpedientes, Approve, ...)
	Operation string
	// Status — HTTP-статус ответа
	Status int
	// Message — поле message (или error) тела ответа, пустое если сервер его не прислал
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: DICRI API вернул статус %d: %s", e.Operation, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: DICRI API вернул статус %d", e.Operation, e.Status)
}

// ServerMessage возвращает сообщение сервера из ошибки клиента или пустую строку.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// StatusOf возвращает HTTP-статус из ошибки клиента или 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client — HTTP-клиент DICRI API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	healthPath string
	logger     *slog.Logger
}

// New создаёт клиент DICRI API.
// baseURL — базовый URL API (например, http://dicri-api:3000/api).
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
// timeout — таймаут HTTP-запросов (DC_API_TIMEOUT).
// healthPath — путь health endpoint API для readiness и dephealth.
func New(baseURL, caCertPath string, timeout time.Duration, healthPath string, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата DICRI API: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат DICRI API добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	if healthPath == "" {
		healthPath = "/health"
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    normalizeURL(baseURL),
		healthPath: healthPath,
		logger:     logger.With(slog.String("component", "api_client")),
	}, nil
}

// BaseURL возвращает базовый URL API без завершающего слэша.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HealthPath возвращает путь health endpoint API.
func (c *Client) HealthPath() string {
	return c.healthPath
}

// do выполняет один запрос к API.
// body (если не nil) кодируется в JSON, ответ 2xx декодируется в out (если не nil).
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("кодирование запроса %s: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("создание запроса %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	remoteRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		remoteRequestsTotal.WithLabelValues(op, "error").Inc()
		c.logger.Warn("Запрос к DICRI API не выполнен",
			slog.String("operation", op),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("запрос %s к %s: %w", op, c.baseURL, err)
	}
	defer resp.Body.Close()
	remoteRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	c.logger.Debug("Ответ DICRI API",
		slog.String("operation", op),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(op, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("декодирование ответа %s: %w", op, err)
	}
	return nil
}

// decodeAPIError извлекает message (или error) из тела ответа с ошибкой.
func decodeAPIError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{Operation: op, Status: resp.StatusCode}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
	}
	return apiErr
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("в файле %s нет PEM-сертификатов", caCertPath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// normalizeURL убирает trailing slash из URL.
func normalizeURL(rawURL string) string {
	return strings.TrimRight(rawURL, "/")
}
