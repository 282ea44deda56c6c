package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BinData is a packing decision: the id of the chosen bin.
// A zero value means no decision.
type BinData struct {
	ID string `json:"id"`
}

// IsEmpty reports whether the bin data carries no id.
func (b BinData) IsEmpty() bool {
	return b.ID == ""
}

// ParseBinData decodes a JSON object with a string or integer "id".
// Anything else yields an empty BinData and false.
func ParseBinData(raw []byte) (BinData, bool) {
	var obj map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return BinData{}, false
	}
	id, ok := parseBinID(obj["id"])
	if !ok {
		return BinData{}, false
	}
	return BinData{ID: id}, true
}

func parseBinID(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", false
	}
	i, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatInt(i, 10), true
}

// CachedDecision is a persisted packer API decision keyed by request hash.
// ResponseBody holds the JSON-encoded BinData; its id may no longer exist
// in the catalog.
type CachedDecision struct {
	RequestHash  string    `json:"request_hash" bson:"_id" db:"request_hash"`
	ResponseBody string    `json:"response_body" bson:"response_body" db:"response_body"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" db:"created_at"`
}

// Decision sources recorded in the decision log and metrics.
const (
	SourceCache  = "cache"
	SourceAPI    = "api"
	SourceLocal  = "local"
	SourceFailed = "none"
)

// DecisionRecord is one entry of the decision log.
type DecisionRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
	RequestID    string             `bson:"request_id,omitempty" json:"request_id,omitempty"`
	RequestHash  string             `bson:"request_hash" json:"request_hash"`
	ItemsCount   int                `bson:"items_count" json:"items_count"`
	CacheContext string             `bson:"cache_context" json:"cache_context"`
	Source       string             `bson:"source" json:"source"`
	PackagingID  int64              `bson:"packaging_id,omitempty" json:"packaging_id,omitempty"`
	DurationMs   int64              `bson:"duration_ms" json:"duration_ms"`
	Error        string             `bson:"error,omitempty" json:"error,omitempty"`
}

// DecisionQueryOptions filters the decision log.
type DecisionQueryOptions struct {
	RequestHash string
	Source      string
	StartTime   *time.Time
	EndTime     *time.Time
	Limit       int
	Skip        int
}
