package api

import (
	"math"
	"net/http"
	"strings"
	"testing"
	_ "time/tzdata"

	"github.com/banshee-data/angle.receiver/internal/db"
	"github.com/banshee-data/angle.receiver/internal/testutil"
)

func TestListSamples_Units(t *testing.T) {
	env := setupTestServer(t)
	recordSamples(t, env, 90, 180)

	w := env.do(t, http.MethodGet, "/samples?units=rad", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	var got []db.AngleSample
	testutil.DecodeJSON(t, w, &got)
	if len(got) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(got))
	}
	if math.Abs(got[0].Processed-math.Pi) > 1e-9 || math.Abs(got[1].Raw-math.Pi/2) > 1e-9 {
		t.Errorf("radian conversion wrong: %+v", got)
	}

	w = env.do(t, http.MethodGet, "/samples?units=rev", nil)
	testutil.DecodeJSON(t, w, &got)
	if got[0].Processed != 0.5 || got[1].Processed != 0.25 {
		t.Errorf("revolution conversion wrong: %+v", got)
	}
}

func TestListSamples_Timezone(t *testing.T) {
	env := setupTestServer(t)
	recordSamples(t, env, 10)

	w := env.do(t, http.MethodGet, "/samples?tz=Europe/Berlin", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	if !strings.Contains(w.Body.String(), "+02:00") {
		t.Errorf("expected a CEST offset in %s", w.Body.String())
	}
	var got []db.AngleSample
	testutil.DecodeJSON(t, w, &got)
	if len(got) != 1 || !got[0].ReceivedAt.Equal(t0) {
		t.Errorf("conversion must keep the instant: %+v", got)
	}
}

func TestDisplayParams_Invalid(t *testing.T) {
	env := setupTestServer(t)
	for _, target := range []string{
		"/samples?units=grad",
		"/samples?tz=Mars/Olympus",
		"/charts/angles?units=DEG",
		"/charts/angles.png?tz=nowhere",
	} {
		w := env.do(t, http.MethodGet, target, nil)
		testutil.AssertStatusCode(t, w.Code, http.StatusBadRequest)
	}
}

func TestAngleChart_Units(t *testing.T) {
	env := setupTestServer(t)
	recordSamples(t, env, 90, 180)

	w := env.do(t, http.MethodGet, "/charts/angles?units=rev", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	if !strings.Contains(w.Body.String(), "revolutions") {
		t.Error("chart axis should be labelled in revolutions")
	}
}
