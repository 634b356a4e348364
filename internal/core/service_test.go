package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/datasweeper/internal/codec"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeRecorder struct {
	mu       sync.Mutex
	ingested map[string]int
	cleaned  int
	exported int
	sessions int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{ingested: make(map[string]int)}
}

func (r *fakeRecorder) FileIngested(_ codec.Format, outcome string) {
	r.mu.Lock()
	r.ingested[outcome]++
	r.mu.Unlock()
}

func (r *fakeRecorder) CleanApplied(CleanOp) {
	r.mu.Lock()
	r.cleaned++
	r.mu.Unlock()
}

func (r *fakeRecorder) Exported(codec.Format, int) {
	r.mu.Lock()
	r.exported++
	r.mu.Unlock()
}

func (r *fakeRecorder) SessionsActive(n int) {
	r.mu.Lock()
	r.sessions = n
	r.mu.Unlock()
}

func workbookFile(t *testing.T, name string) UploadedFile {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"x", "y", "z"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{1, 2, 3}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return UploadedFile{Name: name, Size: int64(buf.Len()), Data: buf.Bytes()}
}

func TestIngest_BatchWithUnsupportedFile(t *testing.T) {
	rec := newFakeRecorder()
	svc := NewService(Options{Recorder: rec})
	sess := svc.NewSession()

	outcomes, err := svc.Ingest(context.Background(), sess.ID, []UploadedFile{
		csvFile("first.csv", scenarioCSV),
		csvFile("report.txt", "a,b\n1,2\n"),
		workbookFile(t, "book.xlsx"),
		csvFile("broken.csv", "a,b\n1\n"),
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	assert.True(t, outcomes[0].OK())
	assert.NotEmpty(t, outcomes[0].FileID)

	assert.False(t, outcomes[1].OK())
	assert.True(t, errors.Is(outcomes[1].Err, codec.ErrUnsupportedFormat))
	assert.Equal(t, "FILE001", outcomes[1].Error.Code)
	assert.Empty(t, outcomes[1].FileID)

	assert.True(t, outcomes[2].OK(), "files after a failure are still processed")

	assert.True(t, errors.Is(outcomes[3].Err, codec.ErrParse))
	assert.Equal(t, "FILE002", outcomes[3].Error.Code)

	files := sess.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "first.csv", files[0].Name)
	assert.Equal(t, "book.xlsx", files[1].Name)
	assert.Equal(t, []string{"x", "y", "z"}, files[1].Table().ColumnNames())

	assert.Equal(t, 2, rec.ingested[OutcomeOK])
	assert.Equal(t, 1, rec.ingested[OutcomeRejected])
	assert.Equal(t, 1, rec.ingested[OutcomeFailed])
}

func TestIngest_LogsRejectionsWithSession(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "info", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	svc := NewService(Options{})
	sess := svc.NewSession()
	ctx := ContextWithClient(context.Background(), "203.0.113.7", "test-agent")

	_, err := svc.Ingest(ctx, sess.ID, []UploadedFile{csvFile("report.txt", "a\n1\n")})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "file rejected")
	assert.Contains(t, out, "session="+sess.ID)
	assert.Contains(t, out, "ip=203.0.113.7")
	assert.Contains(t, out, "Unsupported file type (Code: FILE001)")
}

func TestIngest_Limits(t *testing.T) {
	svc := NewService(Options{MaxFileSize: 10, MaxFiles: 1})
	sess := svc.NewSession()

	outcomes, err := svc.Ingest(context.Background(), sess.ID, []UploadedFile{
		csvFile("big.csv", "a,b,c,d,e,f\n1,2,3,4,5,6\n"),
		csvFile("ok.csv", "a\n1\n"),
		csvFile("extra.csv", "a\n2\n"),
	})
	require.NoError(t, err)

	assert.True(t, errors.Is(outcomes[0].Err, ErrFileTooLarge))
	assert.True(t, outcomes[1].OK())
	assert.True(t, errors.Is(outcomes[2].Err, ErrTooManyFiles))
	assert.Equal(t, 1, sess.FileCount())
}

func TestIngest_SessionErrors(t *testing.T) {
	svc := NewService(Options{})

	_, err := svc.Ingest(context.Background(), "missing", []UploadedFile{csvFile("a.csv", "a\n1\n")})
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	sess := svc.NewSession()
	_, err = svc.Ingest(context.Background(), sess.ID, nil)
	assert.True(t, errors.Is(err, ErrNoFile))
}

func TestIngest_CancelledContext(t *testing.T) {
	svc := NewService(Options{})
	sess := svc.NewSession()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := svc.Ingest(ctx, sess.ID, []UploadedFile{csvFile("a.csv", "a\n1\n")})
	require.NoError(t, err)
	assert.True(t, errors.Is(outcomes[0].Err, context.Canceled))
	assert.Equal(t, "UPL004", outcomes[0].Error.Code)
}

func TestService_CleanAndExportRecordMetrics(t *testing.T) {
	rec := newFakeRecorder()
	svc := NewService(Options{Recorder: rec})
	sess := svc.NewSession()

	outcomes, err := svc.Ingest(context.Background(), sess.ID, []UploadedFile{csvFile("d.csv", scenarioCSV)})
	require.NoError(t, err)
	p, err := sess.File(outcomes[0].FileID)
	require.NoError(t, err)

	_, err = svc.Clean(p, OpRemoveDuplicates)
	require.NoError(t, err)
	_, err = svc.Clean(p, "bogus")
	require.Error(t, err)

	art, err := svc.Export(context.Background(), p, codec.CSV)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\n,4\n", string(art.Data))

	assert.Equal(t, 1, rec.cleaned)
	assert.Equal(t, 1, rec.exported)
	assert.Equal(t, 1, rec.sessions)
}

func TestSession_FilesAndRemove(t *testing.T) {
	svc := NewService(Options{})
	sess := svc.NewSession()

	outcomes, err := svc.Ingest(context.Background(), sess.ID, []UploadedFile{
		csvFile("one.csv", "a\n1\n"),
		csvFile("two.csv", "a\n2\n"),
	})
	require.NoError(t, err)

	require.NoError(t, sess.RemoveFile(outcomes[0].FileID))
	assert.True(t, errors.Is(sess.RemoveFile(outcomes[0].FileID), ErrFileNotFound))

	_, err = sess.File(outcomes[0].FileID)
	assert.True(t, errors.Is(err, ErrFileNotFound))

	files := sess.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "two.csv", files[0].Name)
}

func TestService_Annotations(t *testing.T) {
	svc := NewService(Options{})
	sess := svc.NewSession()

	notes := Annotations{Goal: "tidy the Q3 export", Reflection: "dupes came from a double sync"}
	require.NoError(t, svc.SetAnnotations(sess.ID, notes))
	assert.Equal(t, notes, sess.Annotations())

	assert.True(t, errors.Is(svc.SetAnnotations("nope", notes), ErrSessionNotFound))
}

func TestService_SessionExpiry(t *testing.T) {
	rec := newFakeRecorder()
	svc := NewService(Options{SessionTTL: time.Minute, Recorder: rec})

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	idle := svc.NewSession()
	active := svc.NewSession()

	now = now.Add(45 * time.Second)
	_, err := svc.Session(active.ID)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, svc.SweepExpired())
	assert.Equal(t, 1, svc.SessionCount())
	assert.Equal(t, 1, rec.sessions)

	_, err = svc.Session(idle.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	now = now.Add(2 * time.Minute)
	_, err = svc.Session(active.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound), "lookup past TTL expires the session")
	assert.Equal(t, 0, svc.SessionCount())
}

func TestService_StartSessionSweeperStops(t *testing.T) {
	svc := NewService(Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.StartSessionSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestService_IndependentSessions(t *testing.T) {
	svc := NewService(Options{MaxConcurrent: 2})

	var wg sync.WaitGroup
	sessions := make([]*Session, 8)
	for i := range sessions {
		sessions[i] = svc.NewSession()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data := fmt.Sprintf("id,v\n%d,1\n%d,1\n", i, i)
			outcomes, err := svc.Ingest(context.Background(), sessions[i].ID, []UploadedFile{csvFile("s.csv", data)})
			if err != nil || !outcomes[0].OK() {
				t.Errorf("session %d: ingest failed: %v %v", i, err, outcomes)
				return
			}
			p, _ := sessions[i].File(outcomes[0].FileID)
			if _, err := p.Clean(OpRemoveDuplicates); err != nil {
				t.Errorf("session %d: clean: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	for i, sess := range sessions {
		files := sess.Files()
		require.Len(t, files, 1)
		got := files[0].Table()
		assert.Equal(t, 1, got.NumRows())
		id, _ := got.Column("id")
		assert.Equal(t, float64(i), id.Values[0].Num, "session %d sees only its own data", i)
	}
}
