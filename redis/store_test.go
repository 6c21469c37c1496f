package redis

import (
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testClient returns a client that is never dialed; go-redis connects
// lazily, so key-mapping and config tests need no server.
func testClient() redis.UniversalClient {
	return redis.NewClient(&redis.Options{Addr: "localhost:0"})
}

func TestNewStore_NilClient(t *testing.T) {
	if _, err := NewStore(nil, Config{}); !errors.Is(err, ErrNilClient) {
		t.Errorf("NewStore(nil) error = %v, want ErrNilClient", err)
	}
}

func TestNewStore_Defaults(t *testing.T) {
	s, err := NewStore(testClient(), Config{})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if s.prefix != "reqcache" {
		t.Errorf("prefix = %q, want reqcache", s.prefix)
	}
	if s.tagTTL != 24*time.Hour {
		t.Errorf("tagTTL = %v, want 24h", s.tagTTL)
	}
}

func TestNewStore_CustomConfig(t *testing.T) {
	s, err := NewStore(testClient(), Config{Prefix: "sessions", TagTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if s.prefix != "sessions" {
		t.Errorf("prefix = %q, want sessions", s.prefix)
	}
	if s.tagTTL != time.Hour {
		t.Errorf("tagTTL = %v, want 1h", s.tagTTL)
	}
}

func TestStore_KeyMapping(t *testing.T) {
	s, err := NewStore(testClient(), Config{Prefix: "reqcache"})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if got := s.entryKey("req:GET /users:abcd"); got != "reqcache:entry:req:GET /users:abcd" {
		t.Errorf("entryKey() = %q", got)
	}
	if got := s.tagKey("users"); got != "reqcache:tag:users" {
		t.Errorf("tagKey() = %q", got)
	}
	if got := s.logicalKey("reqcache:entry:req:GET /users:abcd"); got != "req:GET /users:abcd" {
		t.Errorf("logicalKey() = %q", got)
	}
}

func TestStore_LogicalKeyRoundTrip(t *testing.T) {
	s, err := NewStore(testClient(), Config{Prefix: "p1"})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	keys := []string{"a", "req:users:list:0011223344556677", "with:colons:inside"}
	for _, k := range keys {
		if got := s.logicalKey(s.entryKey(k)); got != k {
			t.Errorf("logicalKey(entryKey(%q)) = %q", k, got)
		}
	}
}
