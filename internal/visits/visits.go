// Package visits records privacy-conscious page view statistics. Client IPs
// are never stored, only a salted truncated hash, and visitors sending
// "DNT: 1" are not recorded at all.
package visits

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Saikiran-Avusula/portfolio/internal/database"
	"github.com/Saikiran-Avusula/portfolio/internal/logger"
)

// Retention is how long visit records are kept.
const Retention = 12 * 30 * 24 * time.Hour

// Paths that are not page views.
var skipPrefixes = []string{
	"/static/",
	"/assets/",
	"/admin",
	"/api/",
	"/favicon",
	"/healthz",
	"/get-",
	"/upload-",
	"/delete-",
	"/contact",
}

type Visit struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

type Stats struct {
	TotalVisitors    int64   `json:"total_visitors"`
	UniqueVisitors   int64   `json:"unique_visitors"`
	VisitorsToday    int64   `json:"visitors_today"`
	VisitorsThisWeek int64   `json:"visitors_this_week"`
	RecentVisitors   []Visit `json:"recent_visitors"`
}

type Tracker struct {
	db   *sql.DB
	salt string
	log  logger.ILogger
	now  func() time.Time
}

// NewTracker uses salt for IP hashing. An empty salt is replaced with a random
// one, so unique counts only hold within one process lifetime.
func NewTracker(db *sql.DB, salt string, log logger.ILogger) (*Tracker, error) {
	if salt == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generating hashing salt: %w", err)
		}
		salt = hex.EncodeToString(b)
	}
	return &Tracker{db: db, salt: salt, log: log, now: time.Now}, nil
}

// HashIP is consistent per IP for a given salt.
func (t *Tracker) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + t.salt))
	return hex.EncodeToString(sum[:])[:16]
}

func (t *Tracker) Record(ctx context.Context, ip, userAgent, path string) error {
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, t.HashIP(ip), userAgent, path, t.stamp(t.now()))
	if err != nil {
		return fmt.Errorf("recording visit: %w", err)
	}
	return nil
}

// Middleware records GET page views in the background.
func (t *Tracker) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet || skipped(path) || c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		ip, ua := c.ClientIP(), c.GetHeader("User-Agent")
		go func() {
			if err := t.Record(context.Background(), ip, ua, path); err != nil {
				t.log.Error("visits", "failed to record visit", map[string]interface{}{"error": err})
			}
		}()
		c.Next()
	}
}

func skipped(path string) bool {
	for _, p := range skipPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Stats summarises the recorded visits. "Today" is the current UTC day.
func (t *Tracker) Stats(ctx context.Context) (*Stats, error) {
	now := t.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	s := &Stats{}
	counts := []struct {
		dst   *int64
		query string
		args  []interface{}
	}{
		{&s.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&s.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&s.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []interface{}{t.stamp(startOfDay)}},
		{&s.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []interface{}{t.stamp(now.AddDate(0, 0, -7))}},
	}
	for _, q := range counts {
		if err := t.db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dst); err != nil {
			return nil, fmt.Errorf("loading visit stats: %w", err)
		}
	}

	recent, err := t.Recent(ctx, 50)
	if err != nil {
		return nil, err
	}
	s.RecentVisitors = recent
	return s, nil
}

// Recent returns the latest visits, newest first.
func (t *Tracker) Recent(ctx context.Context, limit int) ([]Visit, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''),
			strftime('%Y-%m-%d %H:%M:%S', timestamp)
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("loading recent visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		var ts sql.NullString
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &ts); err != nil {
			continue
		}
		if ts.Valid {
			v.Timestamp, _ = time.Parse(database.TimeLayout, ts.String)
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// Cleanup removes visits older than Retention.
func (t *Tracker) Cleanup(ctx context.Context) (int64, error) {
	res, err := t.db.ExecContext(ctx, `DELETE FROM visitors WHERE timestamp < ?`, t.stamp(t.now().Add(-Retention)))
	if err != nil {
		return 0, fmt.Errorf("cleaning up visits: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		t.log.Info("visits", "privacy cleanup removed old visit records", map[string]interface{}{"removed": n})
	}
	return n, nil
}

func (t *Tracker) stamp(ts time.Time) string {
	return ts.UTC().Format(database.TimeLayout)
}
