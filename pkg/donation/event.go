// Package donation holds the normalized donation event shared by the indexer,
// the store and the subscriber fan-out.
package donation

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// NotificationType is the envelope type of a new donation pushed to subscribers.
const NotificationType = "new_donation"

// Key is the natural identity of an event on chain.
type Key struct {
	TxHash   common.Hash
	LogIndex uint
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.TxHash.Hex(), k.LogIndex)
}

// Event is a decoded DonationReceived log. Events are immutable once stored.
type Event struct {
	Donor          common.Address
	Amount         *big.Int
	Cause          string
	DonationID     *big.Int
	TxHash         common.Hash
	LogIndex       uint
	BlockNumber    uint64
	BlockHash      common.Hash
	ChainTimestamp uint64
	IndexedAt      time.Time
}

// Key returns the (txHash, logIndex) identity of the event.
func (e *Event) Key() Key {
	return Key{TxHash: e.TxHash, LogIndex: e.LogIndex}
}

// Less orders events by (blockNumber, logIndex).
func (e *Event) Less(other *Event) bool {
	if e.BlockNumber != other.BlockNumber {
		return e.BlockNumber < other.BlockNumber
	}
	return e.LogIndex < other.LogIndex
}

// NotificationData is the payload of a live donation notification.
type NotificationData struct {
	Donor          string `json:"donor"`
	Amount         string `json:"amount"`
	Cause          string `json:"cause"`
	TxHash         string `json:"txHash"`
	LogIndex       uint   `json:"logIndex"`
	BlockNumber    uint64 `json:"blockNumber"`
	ChainTimestamp uint64 `json:"chainTimestamp"`
	DonationID     string `json:"donationId"`

	// Suspicious marks a donation far larger than the donor's usual amount.
	Suspicious bool `json:"suspicious"`
}

// Notification is the message broadcast to subscribers for every newly stored event.
type Notification struct {
	Type string           `json:"type"`
	Data NotificationData `json:"data"`
}

// NewNotification builds the subscriber message for ev.
// Amounts are rendered as decimal strings so uint256 values survive JSON clients.
func NewNotification(ev *Event) Notification {
	return Notification{
		Type: NotificationType,
		Data: NotificationData{
			Donor:          ev.Donor.Hex(),
			Amount:         bigString(ev.Amount),
			Cause:          ev.Cause,
			TxHash:         ev.TxHash.Hex(),
			LogIndex:       ev.LogIndex,
			BlockNumber:    ev.BlockNumber,
			ChainTimestamp: ev.ChainTimestamp,
			DonationID:     bigString(ev.DonationID),
		},
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
