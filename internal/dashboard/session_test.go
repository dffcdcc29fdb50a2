package dashboard

import (
	"testing"
	"time"

	"dropout-risk/internal/ml"

	"github.com/stretchr/testify/assert"
)

func TestSessionStore_TouchAndExpire(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	store := NewSessionStore(10 * time.Minute)
	store.now = func() time.Time { return now }

	id := store.Touch("")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, store.Touch(id))
	assert.NotEqual(t, id, store.Touch("forged"))
	assert.Equal(t, 2, store.Len())

	store.Put(id, &Upload{FileName: "a.csv"})
	assert.Equal(t, "a.csv", store.Get(id).FileName)
	assert.Equal(t, 1, store.Uploads())

	now = now.Add(11 * time.Minute)
	assert.Nil(t, store.Get(id))
	assert.NotEqual(t, id, store.Touch(id))

	assert.Equal(t, 1, store.Expire())
	assert.Equal(t, 1, store.Len())
	assert.Zero(t, store.Uploads())
}

func TestTopRecords_StableDescending(t *testing.T) {
	records := []ml.ScoredRecord{
		{StudentID: 0, Probability: 0.2},
		{StudentID: 1, Probability: 0.9},
		{StudentID: 2, Probability: 0.5},
		{StudentID: 3, Probability: 0.9},
		{StudentID: 4, Probability: 0.1},
	}

	top := topRecords(records, 3)
	ids := []int{top[0].StudentID, top[1].StudentID, top[2].StudentID}
	assert.Equal(t, []int{1, 3, 2}, ids)
	assert.Equal(t, 0, records[0].StudentID)

	assert.Len(t, topRecords(records, 20), 5)
}

func TestBuildBars(t *testing.T) {
	bars, height := buildBars([]ml.FeatureImportance{
		{Name: "raisedhands", Importance: 0.4},
		{Name: "Discussion", Importance: 0.1},
	})

	assert.Len(t, bars, 2)
	assert.InDelta(t, chartWidth, bars[0].Width, 1e-9)
	assert.InDelta(t, chartWidth/4, bars[1].Width, 1e-9)
	assert.Equal(t, 28, bars[1].Y)
	assert.Equal(t, 60, height)

	bars, _ = buildBars([]ml.FeatureImportance{{Name: "x"}})
	assert.Zero(t, bars[0].Width)
}
