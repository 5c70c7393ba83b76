package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/MRAT/internal/config"
	"github.com/MikeSquared-Agency/MRAT/internal/hermes"
	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
	"github.com/MikeSquared-Agency/MRAT/internal/session"
)

type MockHermes struct {
	mock.Mock
}

func (m *MockHermes) Publish(subject string, data interface{}) error {
	return m.Called(subject, data).Error(0)
}

func (m *MockHermes) Subscribe(subject string, handler func(string, []byte)) error {
	return m.Called(subject).Error(0)
}

func (m *MockHermes) Close() {}

type failingBlobs struct{}

func (failingBlobs) Put(context.Context, string, []byte) error { return errors.New("bucket not found") }
func (failingBlobs) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("bucket not found")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshot() *session.Snapshot {
	records := []scoring.CountryRecord{
		{ID: "nigeria", Name: "Nigeria", Code: "NG", Scores: map[scoring.Factor]float64{
			scoring.FactorInfrastructure: 6.2, scoring.FactorRegulation: 5.8, scoring.FactorMarketDemand: 8.5,
			scoring.FactorStability: 5.4, scoring.FactorPartnerships: 7.2,
		}},
		{ID: "south-africa", Name: "South Africa", Code: "ZA", Scores: map[scoring.Factor]float64{
			scoring.FactorInfrastructure: 8.5, scoring.FactorRegulation: 7.5, scoring.FactorMarketDemand: 7.2,
			scoring.FactorStability: 6.2, scoring.FactorPartnerships: 8.3,
		}},
	}
	board := session.NewBoard("default", scoring.DefaultWeights(), records, scoring.NewScorer(discardLogger()))
	return board.Snapshot()
}

func TestLocalStoragePutGet(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "reports/a.json", []byte(`{"ok":true}`)))
	got, err := s.Get(ctx, "reports/a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(got))

	_, err = os.Stat(filepath.Join(dir, "reports", "a.json"))
	assert.NoError(t, err)

	_, err = s.Get(ctx, "reports/missing.json")
	assert.Error(t, err)
}

func TestNewBlobStore(t *testing.T) {
	ctx := context.Background()

	blobs, err := NewBlobStore(ctx, config.ExportConfig{Backend: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, blobs)

	_, err = NewBlobStore(ctx, config.ExportConfig{Backend: "ftp"})
	assert.Error(t, err)
}

func TestExportWritesTimestampedAndLatest(t *testing.T) {
	dir := t.TempDir()
	h := new(MockHermes)
	h.On("Publish", hermes.SubjectExportCompleted, mock.Anything).Return(nil)

	e := NewExporter(NewLocalStorage(dir), "local", "reports", h, discardLogger())
	e.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	none, err := e.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, none, "no report before the first export")

	key, err := e.Export(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "reports/20260304T050607Z.json", key)

	_, err = os.Stat(filepath.Join(dir, "reports", "20260304T050607Z.json"))
	require.NoError(t, err)

	latest, err := e.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, latest.Countries, 2)
	assert.Equal(t, "south-africa", latest.Countries[0].ID)
	assert.Equal(t, 1, latest.Countries[0].Rank)
	assert.Equal(t, 7.6, latest.Countries[0].TotalScore)
	assert.Equal(t, "Low Risk", latest.Countries[0].RiskLabel)
	assert.Equal(t, 6.73, latest.Countries[1].TotalScore)
	assert.Equal(t, scoring.RiskMedium, latest.Countries[1].RiskLevel)
	assert.Equal(t, scoring.DefaultWeights(), latest.Weights)

	h.AssertCalled(t, "Publish", hermes.SubjectExportCompleted, mock.MatchedBy(func(evt hermes.ExportCompletedEvent) bool {
		return evt.Key == key && evt.Countries == 2 && evt.Backend == "local"
	}))
}

func TestExportSkipsUnevaluatedRecords(t *testing.T) {
	snap := testSnapshot()
	snap.Countries = append(snap.Countries, scoring.CountryRecord{ID: "unscored", Name: "Unscored"})

	report := BuildReport(snap, time.Now())
	assert.Len(t, report.Countries, 2)
}

func TestExportBlobFailure(t *testing.T) {
	e := NewExporter(failingBlobs{}, "s3", "reports", nil, discardLogger())
	_, err := e.Export(context.Background(), testSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write report")
}

func TestSchedulerRejectsInvalidSpec(t *testing.T) {
	s, err := NewScheduler("UTC")
	require.NoError(t, err)
	assert.Error(t, s.Schedule("not a cron", func() {}))
	assert.True(t, s.Next().IsZero())
}

func TestSchedulerUnknownTimezone(t *testing.T) {
	_, err := NewScheduler("Mars/Olympus_Mons")
	assert.Error(t, err)
}

func TestSchedulerRunsJob(t *testing.T) {
	s, err := NewScheduler("UTC")
	require.NoError(t, err)

	var runs atomic.Int32
	require.NoError(t, s.Schedule("@every 1s", func() { runs.Add(1) }))
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	assert.False(t, s.Next().IsZero())
}
