package domain

import "time"

type IndexState string

const (
	IndexAbsent   IndexState = "absent"
	IndexBuilding IndexState = "building"
	IndexReady    IndexState = "ready"
)

type IndexStatus struct {
	State               IndexState `json:"state"`
	Initialized         bool       `json:"initialized"`
	Building            bool       `json:"building_index"`
	DocumentCount       int        `json:"document_count"`
	IndexedCount        int        `json:"indexed_count"`
	BuiltAt             *time.Time `json:"last_update,omitempty"`
	Rebuilds            int64      `json:"rebuilds"`
	CacheEnabled        bool       `json:"cache_enabled"`
	TermSaturation      float64    `json:"k1"`
	LengthNormalization float64    `json:"b"`
}
