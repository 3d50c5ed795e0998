package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// AssetStatus is the canonical status of an asset or an audit record.
// Raw strings (English or Japanese labels) are converted with CanonicalStatus
// when they enter the system; everything past that point switches on these values.
type AssetStatus string

const (
	AssetStatusPending              AssetStatus = "Pending"
	AssetStatusFound                AssetStatus = "Found"
	AssetStatusMissing              AssetStatus = "Missing"
	AssetStatusBroken               AssetStatus = "Broken"
	AssetStatusInStorage            AssetStatus = "InStorage"
	AssetStatusScheduledForDisposal AssetStatus = "ScheduledForDisposal"
	AssetStatusReturned             AssetStatus = "Returned"
	AssetStatusAbolished            AssetStatus = "Abolished"
	AssetStatusInUse                AssetStatus = "InUse"
	AssetStatusOnLoan               AssetStatus = "OnLoan"
	AssetStatusReservedForUse       AssetStatus = "ReservedForUse"
)

type statusLabels struct {
	english  string
	japanese string
}

var assetStatusLabels = map[AssetStatus]statusLabels{
	AssetStatusPending:              {"Pending", "未確認"},
	AssetStatusFound:                {"Found", "確認済"},
	AssetStatusMissing:              {"Missing", "欠落"},
	AssetStatusBroken:               {"Broken", "故障中"},
	AssetStatusInStorage:            {"In Storage", "保管中"},
	AssetStatusScheduledForDisposal: {"Scheduled for Disposal", "廃棄予定"},
	AssetStatusReturned:             {"Returned", "返却済"},
	AssetStatusAbolished:            {"Abolished", "廃棄済"},
	AssetStatusInUse:                {"In Use", "使用中"},
	AssetStatusOnLoan:               {"On Loan", "貸出中"},
	AssetStatusReservedForUse:       {"Reserved for Use", "使用予約"},
}

// AllAssetStatuses in display order.
var AllAssetStatuses = []AssetStatus{
	AssetStatusPending,
	AssetStatusFound,
	AssetStatusMissing,
	AssetStatusBroken,
	AssetStatusInStorage,
	AssetStatusScheduledForDisposal,
	AssetStatusReturned,
	AssetStatusAbolished,
	AssetStatusInUse,
	AssetStatusOnLoan,
	AssetStatusReservedForUse,
}

// lookup key -> canonical; English keys are lowercased, Japanese kept as is
var assetStatusSynonyms = func() map[string]AssetStatus {
	m := make(map[string]AssetStatus, len(assetStatusLabels)*3)
	for status, labels := range assetStatusLabels {
		m[strings.ToLower(string(status))] = status
		m[strings.ToLower(labels.english)] = status
		m[labels.japanese] = status
	}
	return m
}()

// CanonicalStatus maps a canonical name, English label (any case) or Japanese
// label to its AssetStatus. Unknown input comes back unchanged.
func CanonicalStatus(raw string) AssetStatus {
	key := strings.TrimSpace(raw)
	if status, ok := assetStatusSynonyms[key]; ok {
		return status
	}
	if status, ok := assetStatusSynonyms[strings.ToLower(key)]; ok {
		return status
	}
	return AssetStatus(raw)
}

func (s AssetStatus) IsKnown() bool {
	_, ok := assetStatusLabels[s]
	return ok
}

func (s AssetStatus) EnglishLabel() string {
	if labels, ok := assetStatusLabels[s]; ok {
		return labels.english
	}
	return string(s)
}

func (s AssetStatus) JapaneseLabel() string {
	if labels, ok := assetStatusLabels[s]; ok {
		return labels.japanese
	}
	return string(s)
}

// Unknown values are kept as is; the mutation boundary rejects them.
func (s *AssetStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("asset status must be string")
	}
	*s = CanonicalStatus(str)
	return nil
}

func (s *AssetStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = ""
	case string:
		*s = CanonicalStatus(v)
	case []byte:
		*s = CanonicalStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into AssetStatus", value)
	}
	return nil
}

func (s AssetStatus) Value() (driver.Value, error) {
	return string(s), nil
}
