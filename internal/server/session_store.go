package server

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const sidCookieName = "sid"

var sidRandReader io.Reader = rand.Reader

var errInvalidCredentials = errors.New("server: invalid credentials")

type Session struct {
	TenantID    string
	PrincipalID string
	ExpiresAt   time.Time
	RevokedAt   *time.Time
}

type sessionStore interface {
	Create(ctx context.Context, tenantID string, principalID string, expiresAt time.Time, ip string, userAgent string) (sid string, err error)
	Lookup(ctx context.Context, sid string) (Session, bool, error)
	Revoke(ctx context.Context, sid string) error
}

type principalStore interface {
	AuthenticatePassword(ctx context.Context, tenantID string, email string, password string) (Principal, error)
	GetByID(ctx context.Context, tenantID string, principalID string) (Principal, bool, error)
}

func sidTTLFromEnv() time.Duration {
	const defaultHours = 24 * 14

	v := os.Getenv("SID_TTL_HOURS")
	if v == "" {
		return time.Hour * defaultHours
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return time.Hour * defaultHours
	}
	return time.Hour * time.Duration(n)
}

func newSID() (sid string, tokenSha256 []byte, err error) {
	var b [32]byte
	if _, err := sidRandReader.Read(b[:]); err != nil {
		return "", nil, err
	}
	sid = base64.RawURLEncoding.EncodeToString(b[:])
	sum := sha256.Sum256([]byte(sid))
	return sid, sum[:], nil
}

func readSID(r *http.Request) (string, bool) {
	c, err := r.Cookie(sidCookieName)
	if err != nil {
		return "", false
	}
	if c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func setSIDCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sidCookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSIDCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sidCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type memoryPrincipal struct {
	principal    Principal
	passwordHash []byte
}

// memoryPrincipalStore backs DB-less dev setups and handler tests. Register
// is how fixtures and the dev entrypoint add accounts; the pg store has no
// equivalent because principals are provisioned out of band.
type memoryPrincipalStore struct {
	mu    sync.RWMutex
	byKey map[string]memoryPrincipal
	byID  map[string]memoryPrincipal
}

func newMemoryPrincipalStore() *memoryPrincipalStore {
	return &memoryPrincipalStore{
		byKey: map[string]memoryPrincipal{},
		byID:  map[string]memoryPrincipal{},
	}
}

func (s *memoryPrincipalStore) Register(tenantID string, email string, roleSlug string, password string) (Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Principal{}, err
	}

	var idb [16]byte
	if _, err := sidRandReader.Read(idb[:]); err != nil {
		return Principal{}, err
	}
	p := Principal{
		ID:       base64.RawURLEncoding.EncodeToString(idb[:]),
		TenantID: tenantID,
		RoleSlug: roleSlug,
		Status:   "active",
		Email:    strings.ToLower(strings.TrimSpace(email)),
	}
	mp := memoryPrincipal{principal: p, passwordHash: hash}
	s.byKey[tenantID+"|"+p.Email] = mp
	s.byID[p.ID] = mp
	return p, nil
}

func (s *memoryPrincipalStore) AuthenticatePassword(_ context.Context, tenantID string, email string, password string) (Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := tenantID + "|" + strings.ToLower(strings.TrimSpace(email))
	mp, ok := s.byKey[key]
	if !ok {
		return Principal{}, errInvalidCredentials
	}
	if mp.principal.Status != "active" {
		return Principal{}, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(mp.passwordHash, []byte(password)); err != nil {
		return Principal{}, errInvalidCredentials
	}
	return mp.principal, nil
}

func (s *memoryPrincipalStore) GetByID(_ context.Context, tenantID string, principalID string) (Principal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mp, ok := s.byID[principalID]
	if !ok {
		return Principal{}, false, nil
	}
	if mp.principal.TenantID != tenantID {
		return Principal{}, false, nil
	}
	return mp.principal, true, nil
}

type memorySessionStore struct {
	mu    sync.Mutex
	bySID map[string]Session
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{
		bySID: map[string]Session{},
	}
}

func (s *memorySessionStore) Create(_ context.Context, tenantID string, principalID string, expiresAt time.Time, _ string, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sid, _, err := newSID()
	if err != nil {
		return "", err
	}
	s.bySID[sid] = Session{
		TenantID:    tenantID,
		PrincipalID: principalID,
		ExpiresAt:   expiresAt,
	}
	return sid, nil
}

func (s *memorySessionStore) Lookup(_ context.Context, sid string) (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.bySID[sid]
	if !ok {
		return Session{}, false, nil
	}
	if v.RevokedAt != nil {
		return Session{}, false, nil
	}
	if time.Now().After(v.ExpiresAt) {
		return Session{}, false, nil
	}
	return v, true, nil
}

func (s *memorySessionStore) Revoke(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.bySID, sid)
	return nil
}

type pgPrincipalStore struct {
	q queryExecer
}

type queryExecer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func newPrincipalStore(pool *pgxpool.Pool) principalStore {
	if pool == nil {
		return newMemoryPrincipalStore()
	}
	return &pgPrincipalStore{q: pool}
}

func (s *pgPrincipalStore) AuthenticatePassword(ctx context.Context, tenantID string, email string, password string) (Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var p Principal
	var passwordHash []byte
	err := s.q.QueryRow(ctx, `
SELECT id::text, tenant_id::text, email, role_slug, status, password_hash
FROM iam.principals
WHERE tenant_id = $1 AND email = $2;
`, tenantID, email).Scan(&p.ID, &p.TenantID, &p.Email, &p.RoleSlug, &p.Status, &passwordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Principal{}, errInvalidCredentials
		}
		return Principal{}, err
	}
	if p.Status != "active" {
		return Principal{}, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(passwordHash, []byte(password)); err != nil {
		return Principal{}, errInvalidCredentials
	}
	return p, nil
}

func (s *pgPrincipalStore) GetByID(ctx context.Context, tenantID string, principalID string) (Principal, bool, error) {
	var p Principal
	err := s.q.QueryRow(ctx, `
SELECT id::text, tenant_id::text, email, role_slug, status
FROM iam.principals
WHERE tenant_id = $1 AND id = $2;
`, tenantID, principalID).Scan(&p.ID, &p.TenantID, &p.Email, &p.RoleSlug, &p.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Principal{}, false, nil
		}
		return Principal{}, false, err
	}
	return p, true, nil
}

type pgSessionStore struct {
	q queryExecer
}

func newSessionStore(pool *pgxpool.Pool) sessionStore {
	if pool == nil {
		return newMemorySessionStore()
	}
	return &pgSessionStore{q: pool}
}

func (s *pgSessionStore) Create(ctx context.Context, tenantID string, principalID string, expiresAt time.Time, ip string, userAgent string) (string, error) {
	sid, tokenSha256, err := newSID()
	if err != nil {
		return "", err
	}
	_, err = s.q.Exec(ctx, `
INSERT INTO iam.sessions (token_sha256, tenant_id, principal_id, expires_at, ip, user_agent)
VALUES ($1, $2, $3, $4, $5, $6);
`, tokenSha256, tenantID, principalID, expiresAt, ip, userAgent)
	if err != nil {
		return "", err
	}
	return sid, nil
}

func (s *pgSessionStore) Lookup(ctx context.Context, sid string) (Session, bool, error) {
	sum := sha256.Sum256([]byte(sid))
	var out Session
	var revokedAt *time.Time
	err := s.q.QueryRow(ctx, `
SELECT tenant_id::text, principal_id::text, expires_at, revoked_at
FROM iam.sessions
WHERE token_sha256 = $1;
`, sum[:]).Scan(&out.TenantID, &out.PrincipalID, &out.ExpiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, false, nil
		}
		return Session{}, false, err
	}
	out.RevokedAt = revokedAt
	if out.RevokedAt != nil {
		return Session{}, false, nil
	}
	if time.Now().After(out.ExpiresAt) {
		return Session{}, false, nil
	}
	return out, true, nil
}

func (s *pgSessionStore) Revoke(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	sum := sha256.Sum256([]byte(sid))
	_, err := s.q.Exec(ctx, `DELETE FROM iam.sessions WHERE token_sha256 = $1;`, sum[:])
	return err
}
