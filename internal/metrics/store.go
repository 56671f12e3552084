package metrics

import (
	"context"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"rockwatch/internal/model"
)

// SensorState is the most recent live snapshot seen for one sensor.
type SensorState struct {
	SensorID  string              `json:"sensor_id"`
	Location  string              `json:"location"`
	Reading   model.SensorReading `json:"reading"`
	Risk      float64             `json:"risk"`
	Category  model.RiskCategory  `json:"category"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Store keeps the latest state per sensor. The least recently updated
// sensor is evicted once limit is reached.
type Store struct {
	cache *lru.Cache[string, SensorState]
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 256
	}
	cache, _ := lru.New[string, SensorState](limit)
	return &Store{cache: cache}
}

func (s *Store) Update(snap model.Snapshot) {
	id := snap.Data.SensorData.SensorID
	if id == "" {
		return
	}
	s.cache.Add(id, SensorState{
		SensorID:  id,
		Location:  snap.Data.SensorData.Location,
		Reading:   snap.Data.SensorData,
		Risk:      snap.Data.Prediction.RiskProbability,
		Category:  snap.Data.Prediction.RiskCategory,
		UpdatedAt: snap.ReceivedAt,
	})
}

func (s *Store) Get(sensorID string) (SensorState, bool) {
	return s.cache.Peek(sensorID)
}

// GetAll returns every tracked sensor ordered by id.
func (s *Store) GetAll() []SensorState {
	out := s.cache.Values()
	sort.Slice(out, func(i, j int) bool { return out[i].SensorID < out[j].SensorID })
	return out
}

func (s *Store) Len() int {
	return s.cache.Len()
}

func (s *Store) Clear() {
	s.cache.Purge()
}

func (s *Store) Name() string { return "sensors" }

func (s *Store) Deliver(_ context.Context, snap model.Snapshot) error {
	s.Update(snap)
	return nil
}
