package domain

import "time"

// SweepReport - итог одного прохода очистки
type SweepReport struct {
	Cutoff              time.Time `json:"cutoff"`
	Rooms               int64     `json:"rooms"`
	Texts               int64     `json:"texts"`
	Images              int64     `json:"images"`
	AssetDeleteFailures int       `json:"asset_delete_failures"`
}
