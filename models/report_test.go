package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sigapk3/safety_backend/utils"
)

func TestNormalizeReportDataCurrentVersion(t *testing.T) {
	original := ReportData{
		Version: ReportSchemaVersion,
		Answers: []ReportAnswer{
			{ParameterId: 1, Response: "Baik"},
			{ParameterId: 2, Response: "Ada"},
		},
		Quantities: []ReportQuantity{
			{ItemId: 10, CurrentQty: decimal.NewFromInt(5)},
		},
		Notes:           "selang mulai getas",
		ConditionResult: AssetStatusSafe,
		CompletedAt:     "2026-02-10T09:30:00+07:00",
	}
	raw, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := NormalizeReportData(raw)
	if err != nil {
		t.Fatalf("NormalizeReportData: %v", err)
	}
	if got.Version != ReportSchemaVersion {
		t.Fatalf("version = %d", got.Version)
	}
	if len(got.Answers) != 2 || got.Answers[0].Response != "Baik" {
		t.Fatalf("answers = %+v", got.Answers)
	}
	if got.ConditionResult != AssetStatusSafe {
		t.Fatalf("condition result = %q", got.ConditionResult)
	}
	if got.Notes != original.Notes || got.CompletedAt != original.CompletedAt {
		t.Fatalf("notes/completed_at not preserved: %+v", got)
	}
}

func TestNormalizeReportDataLegacyShape(t *testing.T) {
	// Legacy payloads had no version and keyed answers by parameter id,
	// mixing bare scalars with {response} objects; virtual quantity rows
	// were keyed "virtual_item_<id>".
	raw := json.RawMessage(`{
		"answers": {
			"2": {"response": "Ada", "notes": "x"},
			"1": "Baik",
			"virtual_item_10": "5"
		},
		"condition_result": "critical",
		"notes": "tabung berkarat",
		"completed_at": "2025-11-03T08:00:00+07:00"
	}`)

	got, err := NormalizeReportData(raw)
	if err != nil {
		t.Fatalf("NormalizeReportData: %v", err)
	}
	if got.Version != ReportSchemaVersion {
		t.Fatalf("version = %d", got.Version)
	}
	if len(got.Answers) != 2 {
		t.Fatalf("expected virtual item key skipped, answers = %+v", got.Answers)
	}
	// Answers come back sorted by parameter id regardless of map order.
	if got.Answers[0].ParameterId != 1 || got.Answers[0].Response != "Baik" {
		t.Fatalf("answers[0] = %+v", got.Answers[0])
	}
	if got.Answers[1].ParameterId != 2 || got.Answers[1].Response != "Ada" {
		t.Fatalf("answers[1] = %+v", got.Answers[1])
	}
	if got.ConditionResult != AssetStatusCritical {
		t.Fatalf("condition result = %q", got.ConditionResult)
	}
}

func TestNormalizeReportDataRejectsBadPayloads(t *testing.T) {
	if _, err := NormalizeReportData(nil); !errors.Is(err, utils.ErrorValidation) {
		t.Fatalf("empty payload: got %v", err)
	}
	if _, err := NormalizeReportData(json.RawMessage(`not json`)); !errors.Is(err, utils.ErrorValidation) {
		t.Fatalf("malformed payload: got %v", err)
	}
	if _, err := NormalizeReportData(json.RawMessage(`{"version": 99}`)); !errors.Is(err, utils.ErrorValidation) {
		t.Fatalf("future version: got %v", err)
	}
}
