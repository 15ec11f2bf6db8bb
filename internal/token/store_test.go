package token

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shezi1344/taskflow-cli/internal/model"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir())
}

func mint(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func mintValid(t *testing.T, sub string) string {
	return mint(t, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
}

func TestDefaultDir_EnvOverride(t *testing.T) {
	t.Setenv("TASKFLOW_CONFIG_DIR", "/tmp/tfx")
	if got := DefaultDir(); got != "/tmp/tfx" {
		t.Fatalf("DefaultDir=%q, want /tmp/tfx", got)
	}
	t.Setenv("TASKFLOW_CONFIG_DIR", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultDir(); got != filepath.Join("/tmp/xdg", "taskflow") {
		t.Fatalf("DefaultDir=%q", got)
	}
}

func TestStore_SaveLoad(t *testing.T) {
	s := newStore(t)

	if _, _, ok := s.Load(); ok {
		t.Fatalf("Load on empty store: want ok=false")
	}

	u := model.User{ID: "123", Email: "a@b.com", Name: "A"}
	if err := s.Save("tok-1", u); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cred, got, ok := s.Load()
	if !ok || cred != "tok-1" || got != u {
		t.Fatalf("Load: cred=%q user=%+v ok=%v", cred, got, ok)
	}

	// overwrite
	if err := s.Save("tok-2", u); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	cred, _, _ = s.Load()
	if cred != "tok-2" {
		t.Fatalf("overwrite: cred=%q, want tok-2", cred)
	}
}

func TestStore_Load_DecodeFailureIsAbsence(t *testing.T) {
	s := newStore(t)
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.tokenPath(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := s.Load(); ok {
		t.Fatalf("corrupt token file: want ok=false")
	}

	// valid token file but missing identity: still absence, the pair is
	// only meaningful together
	if err := s.Save("tok", model.User{ID: "1"}); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(s.userPath()); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := s.Load(); ok {
		t.Fatalf("missing user file: want ok=false")
	}
}

func TestStore_Clear_Idempotent(t *testing.T) {
	s := newStore(t)
	if err := s.Save("tok", model.User{ID: "1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, _, ok := s.Load(); ok {
		t.Fatalf("after Clear: want absence")
	}
	// second clear is a no-op
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear twice: %v", err)
	}
}

func TestSubjectFrom(t *testing.T) {
	s := newStore(t)
	if _, ok := SubjectFrom(s); ok {
		t.Fatalf("empty store: want ok=false")
	}
	if err := s.Save(mintValid(t, "u-42"), model.User{ID: "u-42"}); err != nil {
		t.Fatal(err)
	}
	sub, ok := SubjectFrom(s)
	if !ok || sub != "u-42" {
		t.Fatalf("SubjectFrom=%q ok=%v", sub, ok)
	}
}
