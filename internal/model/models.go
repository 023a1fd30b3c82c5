package model

import (
	"time"

	"gorm.io/datatypes"
)

// RoundRecord is the per-round audit row written at settlement. It is local
// round-log data, not a money store: the bankroll balance lives in memory and
// is never restored from here.
type RoundRecord struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	RoundID         string `gorm:"size:36;uniqueIndex"`
	HandCount       int
	TotalBet        int64
	TotalPayout     int64
	DealerValue     int
	DealerBlackjack bool
	DealerBusted    bool
	ResultsJSON     datatypes.JSON `gorm:"type:jsonb"` // per-hand outcome/bet/payout
	CreatedAt       time.Time
}
