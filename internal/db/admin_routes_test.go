package db

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/angle.receiver/internal/testutil"
)

func TestAttachAdminRoutes_Backup(t *testing.T) {
	db := newTestDB(t)
	s, err := db.StartSession(Session{Source: "udp", StartedAt: t0})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.RecordSample(AngleSample{SessionID: s.ID, Raw: 1, Processed: 2, ReceivedAt: t0}); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	if err := db.AttachAdminRoutes(mux); err != nil {
		t.Fatalf("AttachAdminRoutes: %v", err)
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.NewLocalRequest(http.MethodGet, "/debug/backup", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/gzip" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "filename=angles-backup-") || !strings.HasSuffix(cd, ".db.gz") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("backup is not gzip: %v", err)
	}
	restored := filepath.Join(t.TempDir(), "restored.db")
	f, err := os.Create(restored)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.Copy(f, zr); err != nil {
		t.Fatal(err)
	}
	f.Close()

	copyDB, err := OpenDB(restored)
	if err != nil {
		t.Fatal(err)
	}
	defer copyDB.Close()
	var n int
	if err := copyDB.QueryRow("SELECT COUNT(*) FROM angle_samples").Scan(&n); err != nil {
		t.Fatalf("query backup: %v", err)
	}
	if n != 1 {
		t.Errorf("backup has %d samples, want 1", n)
	}
}

func TestBackupName(t *testing.T) {
	db := &DB{path: "/var/lib/angle receiver/../data/my db!.sqlite"}
	got := db.backupName(t0)
	want := fmt.Sprintf("my_db-backup-%d.db", t0.UnixNano())
	if got != want {
		t.Errorf("backupName = %q, want %q", got, want)
	}
}

func TestAttachAdminRoutes_Sessions(t *testing.T) {
	db := newTestDB(t)
	s, _ := db.StartSession(Session{Source: "pcap", StartedAt: t0})

	mux := http.NewServeMux()
	if err := db.AttachAdminRoutes(mux); err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.NewLocalRequest(http.MethodGet, "/debug/sessions", nil))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	var got []Session
	testutil.DecodeJSON(t, w, &got)
	if len(got) != 1 || got[0].ID != s.ID || got[0].Source != "pcap" {
		t.Errorf("sessions = %+v", got)
	}
}

func TestAttachAdminRoutes_DeniesRemote(t *testing.T) {
	db := newTestDB(t)
	mux := http.NewServeMux()
	if err := db.AttachAdminRoutes(mux); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/debug/sessions", nil)
	req.RemoteAddr = "203.0.113.7:4000"
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	testutil.AssertStatusCode(t, w.Code, http.StatusForbidden)
}
