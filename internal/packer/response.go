package packer

import (
	"encoding/json"
	"fmt"

	"github.com/guttosm/packing-service/internal/domain/model"
)

// responseDetails carries what the API said about a request, for logging.
type responseDetails struct {
	Status     json.RawMessage
	Errors     json.RawMessage
	BinsPacked int
	NotPacked  int
}

// parseFindBinSize validates a 200 body and extracts the single packed bin.
// Checks run in a fixed order: envelope, reported errors, bins_packed,
// not_packed_items, bin count, bin_data.
func parseFindBinSize(body []byte) (model.BinData, responseDetails, error) {
	var details responseDetails

	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil || root == nil {
		return model.BinData{}, details, fmt.Errorf("%w: body is not a JSON object", ErrUnexpectedResponseFormat)
	}

	var response map[string]json.RawMessage
	if raw, ok := root["response"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &response); err != nil {
			return model.BinData{}, details, fmt.Errorf("%w: response is not an object", ErrUnexpectedResponseFormat)
		}
	}
	details.Status = nonNull(response["status"])
	details.Errors = nonNull(response["errors"])

	if hasEntries(details.Errors) {
		return model.BinData{}, details, ErrAPIError
	}

	var binsPacked []json.RawMessage
	raw, ok := response["bins_packed"]
	if !ok || isNull(raw) || json.Unmarshal(raw, &binsPacked) != nil {
		return model.BinData{}, details, fmt.Errorf("%w: bins_packed is missing or not a list", ErrUnexpectedResponseFormat)
	}

	var notPacked []json.RawMessage
	if raw, ok := response["not_packed_items"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &notPacked); err != nil {
			return model.BinData{}, details, fmt.Errorf("%w: not_packed_items is not a list", ErrUnexpectedResponseFormat)
		}
	}

	details.BinsPacked = len(binsPacked)
	details.NotPacked = len(notPacked)
	if len(binsPacked) != 1 || len(notPacked) > 0 {
		return model.BinData{}, details, ErrNoAppropriatePackaging
	}

	var packed map[string]json.RawMessage
	if err := json.Unmarshal(binsPacked[0], &packed); err != nil || packed == nil {
		return model.BinData{}, details, fmt.Errorf("%w: packed bin is not an object", ErrUnexpectedResponseFormat)
	}

	binDataRaw, ok := packed["bin_data"]
	if !ok || isNull(binDataRaw) {
		return model.BinData{}, details, fmt.Errorf("%w: bin_data is missing", ErrUnexpectedResponseFormat)
	}

	binData, ok := model.ParseBinData(binDataRaw)
	if !ok {
		return model.BinData{}, details, fmt.Errorf("%w: bin_data has no usable id", ErrUnexpectedResponseFormat)
	}

	return binData, details, nil
}

// diagnosticsFromBody pulls response.status and response.errors out of any
// body, ignoring bodies that are not JSON.
func diagnosticsFromBody(body []byte) responseDetails {
	var envelope struct {
		Response struct {
			Status json.RawMessage `json:"status"`
			Errors json.RawMessage `json:"errors"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return responseDetails{}
	}
	return responseDetails{
		Status: nonNull(envelope.Response.Status),
		Errors: nonNull(envelope.Response.Errors),
	}
}

// hasEntries reports whether raw is a list or object with at least one
// entry. Scalars such as "" or true are informational and never count as
// reported errors.
func hasEntries(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch val := v.(type) {
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return false
	}
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func nonNull(raw json.RawMessage) json.RawMessage {
	if isNull(raw) {
		return nil
	}
	return raw
}
