package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moddy-app/moddysystems/internal/domain"
	util "github.com/moddy-app/moddysystems/pkg/util"
)

func TestFileReportStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "incidents.json")
	store := NewFileReportStore(path)

	report := &domain.StatusReport{
		ID:       "msg-1",
		Kind:     domain.KindIncident,
		Title:    "API Down",
		Services: "API",
		Status:   domain.StatusInvestigating,
		StatusID: "INC-20260301-000001",
		Updates: []domain.Update{
			{Number: 1, Description: "looking into it", Timestamp: 100, Status: domain.StatusInvestigating},
		},
	}
	require.NoError(t, store.Save(report))

	got, err := store.Get("msg-1")
	require.NoError(t, err)
	assert.Equal(t, "API Down", got.Title)
	assert.Equal(t, "msg-1", got.ID)
	require.Len(t, got.Updates, 1)
	assert.Equal(t, "looking into it", got.Updates[0].Description)
}

func TestFileReportStoreMissingFileReadsEmpty(t *testing.T) {
	store := NewFileReportStore(filepath.Join(t.TempDir(), "absent.json"))

	all, err := store.All()
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = store.Get("anything")
	assert.True(t, util.IsCode(err, util.CodeNotFound))
}

func TestFileReportStoreKeysByMessageID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "incidents.json")
	store := NewFileReportStore(path)

	require.NoError(t, store.Save(&domain.StatusReport{
		ID: "msg-1", Kind: domain.KindIncident, Status: domain.StatusOngoing, Title: "one",
	}))
	require.NoError(t, store.Save(&domain.StatusReport{
		ID: "msg-2", Kind: domain.KindMaintenance, Status: domain.StatusScheduled, Title: "two",
	}))

	// The file is a single object keyed by message id; the id itself is
	// not duplicated inside each record.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)
	assert.Contains(t, decoded, "msg-1")
	assert.NotContains(t, decoded["msg-1"], "id")

	all, err := store.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, r := range all {
		assert.NotEmpty(t, r.ID)
	}
}

func TestFileReportStoreOverwritesExisting(t *testing.T) {
	store := NewFileReportStore(filepath.Join(t.TempDir(), "incidents.json"))

	require.NoError(t, store.Save(&domain.StatusReport{
		ID: "msg-1", Kind: domain.KindIncident, Status: domain.StatusOngoing, Title: "before",
	}))
	require.NoError(t, store.Save(&domain.StatusReport{
		ID: "msg-1", Kind: domain.KindIncident, Status: domain.StatusMonitoring, Title: "after",
	}))

	got, err := store.Get("msg-1")
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	assert.Equal(t, domain.StatusMonitoring, got.Status)
}
