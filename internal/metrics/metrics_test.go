package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/datasweeper/internal/codec"
	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	m := New()

	m.FileIngested(codec.CSV, core.OutcomeOK)
	m.FileIngested(codec.CSV, core.OutcomeOK)
	m.FileIngested("", core.OutcomeRejected)
	m.CleanApplied(core.OpFillMissing)
	m.Exported(codec.Spreadsheet, 4096)
	m.SessionsActive(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.filesIngested.WithLabelValues("csv", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.filesIngested.WithLabelValues("unknown", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cleanOps.WithLabelValues("fill_missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("xlsx")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.activeSessions))
}

func TestHandler(t *testing.T) {
	m := New()
	m.SessionsActive(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "datasweeper_sessions_active 1")
	assert.Contains(t, string(body), "go_goroutines")
}
