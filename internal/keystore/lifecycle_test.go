package keystore

import (
	"testing"
	"time"

	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
)

func ptr(t time.Time) *time.Time { return &t }

func TestStateAt(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pke := created.Add(100 * time.Second)
	kea := created.Add(300 * time.Second)
	live := &repository.Record{CreatedAt: created, PrivateKeyExpiresAt: &pke, KeyExpiresAt: &kea}

	cases := []struct {
		name string
		rec  *repository.Record
		at   time.Duration
		want State
	}{
		{"fresh", live, 0, StateActive},
		{"before private expiry", live, 99 * time.Second, StateActive},
		{"at private expiry", live, 100 * time.Second, StateActive},
		{"after private expiry", live, 101 * time.Second, StatePrivateExpired},
		{"just before key expiry", live, 299 * time.Second, StatePrivateExpired},
		{"at key expiry", live, 300 * time.Second, StateFullyExpired},
		{"long after", live, 24 * time.Hour, StateFullyExpired},
		{"no key expiry", &repository.Record{CreatedAt: created}, 0, StateFullyExpired},
		{"no private expiry", &repository.Record{CreatedAt: created, KeyExpiresAt: &kea}, 200 * time.Second, StateActive},
		{"deleted overrides active", &repository.Record{CreatedAt: created, PrivateKeyExpiresAt: &pke, KeyExpiresAt: &kea, DeletedAt: ptr(created)}, 0, StateDeleted},
		{"deleted overrides expired", &repository.Record{CreatedAt: created, KeyExpiresAt: &kea, DeletedAt: ptr(created)}, time.Hour, StateDeleted},
	}
	for _, c := range cases {
		if got := StateAt(c.rec, created.Add(c.at)); got != c.want {
			t.Fatalf("%s: got %s, want %s", c.name, got, c.want)
		}
	}
}

func TestVisibleAndPrivateUsable(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pke := created.Add(100 * time.Second)
	kea := created.Add(300 * time.Second)
	rec := &repository.Record{CreatedAt: created, PrivateKeyExpiresAt: &pke, KeyExpiresAt: &kea}

	if !Visible(rec, created) || !PrivateUsable(rec, created) {
		t.Fatal("fresh record must be visible and private-usable")
	}
	if PrivateUsable(rec, pke) {
		t.Fatal("private key must not be handed out at exactly private_key_expires_at")
	}
	if !Visible(rec, pke) {
		t.Fatal("record must stay visible after private expiry")
	}
	if Visible(rec, kea) {
		t.Fatal("record must not be visible at key_expires_at")
	}
	if Visible(&repository.Record{CreatedAt: created}, created) {
		t.Fatal("record without key_expires_at must not be visible")
	}
}

func TestRetention(t *testing.T) {
	d := DefaultRetention()
	if d.PrivateKey != 86400*time.Second || d.PublicOnly != 172800*time.Second {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if d.Total() != 259200*time.Second {
		t.Fatalf("unexpected total: %s", d.Total())
	}
	if err := (Retention{PrivateKey: 0, PublicOnly: time.Second}).Validate(); err == nil {
		t.Fatal("zero private retention must be rejected")
	}
	if err := (Retention{PrivateKey: time.Second, PublicOnly: -time.Second}).Validate(); err == nil {
		t.Fatal("negative public retention must be rejected")
	}
}

func TestStateString(t *testing.T) {
	want := map[State]string{
		StateActive:         "active",
		StatePrivateExpired: "private_expired",
		StateFullyExpired:   "fully_expired",
		StateDeleted:        "deleted",
		State(0):            "unknown",
	}
	for s, name := range want {
		if s.String() != name {
			t.Fatalf("State(%d).String() = %q, want %q", int(s), s.String(), name)
		}
	}
}
