package orgcode

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"LOCAL-12", "LOCAL-12", false},
		{"ufw_west", "UFW_WEST", false},
		{"a", "A", false},
		{"", "", true},
		{" LOCAL-12", "", true},
		{"LOCAL-12 ", "", true},
		{"BAD CODE", "", true},
		{"TOO-LONG-TOO-LONG-TOO-LONG", "", true},
		{"Ünion", "", true},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrCodeInvalid) {
				t.Fatalf("Normalize(%q) err=%v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Normalize(%q) err=%v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Normalize(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

type stubRow struct {
	err  error
	vals []any
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		if i < len(r.vals) {
			if p, ok := dest[i].(*string); ok {
				*p = r.vals[i].(string)
			}
		}
	}
	return nil
}

type stubTx struct {
	row pgx.Row
}

func (t *stubTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }
func (t *stubTx) Commit(context.Context) error          { return nil }
func (t *stubTx) Rollback(context.Context) error        { return nil }
func (t *stubTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *stubTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (t *stubTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (t *stubTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *stubTx) Conn() *pgx.Conn { return nil }
func (t *stubTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *stubTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (t *stubTx) QueryRow(context.Context, string, ...any) pgx.Row        { return t.row }

func TestResolveIDInvalidCode(t *testing.T) {
	_, err := ResolveID(context.Background(), &stubTx{}, "t1", "bad code")
	if !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("err=%v", err)
	}
}

func TestResolveIDNotFound(t *testing.T) {
	tx := &stubTx{row: stubRow{err: pgx.ErrNoRows}}
	_, err := ResolveID(context.Background(), tx, "t1", "LOCAL-12")
	if !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestResolveIDFound(t *testing.T) {
	tx := &stubTx{row: stubRow{vals: []any{"9b9e5a52-0000-0000-0000-000000000001"}}}
	id, err := ResolveID(context.Background(), tx, "t1", "LOCAL-12")
	if err != nil {
		t.Fatal(err)
	}
	if id != "9b9e5a52-0000-0000-0000-000000000001" {
		t.Fatalf("id=%q", id)
	}
}

func TestResolveCodeNotFound(t *testing.T) {
	tx := &stubTx{row: stubRow{err: pgx.ErrNoRows}}
	_, err := ResolveCode(context.Background(), tx, "t1", "9b9e5a52-0000-0000-0000-000000000001")
	if !errors.Is(err, ErrIDNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestResolveCodeQueryError(t *testing.T) {
	boom := errors.New("boom")
	tx := &stubTx{row: stubRow{err: boom}}
	_, err := ResolveCode(context.Background(), tx, "t1", "9b9e5a52-0000-0000-0000-000000000001")
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}
