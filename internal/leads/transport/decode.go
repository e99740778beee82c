package transport

import "encoding/json"

// DecodeUpdateLeadRequest builds an update request from a decoded JSON
// object, distinguishing fields that were explicitly null from fields that
// were absent. Explicit nulls clear the column; absent fields are untouched.
func DecodeUpdateLeadRequest(raw map[string]interface{}) (UpdateLeadRequest, error) {
	var req UpdateLeadRequest

	encoded, err := json.Marshal(raw)
	if err != nil {
		return UpdateLeadRequest{}, err
	}
	if err := json.Unmarshal(encoded, &req); err != nil {
		return UpdateLeadRequest{}, err
	}

	_, req.ValueSet = raw["value"]
	_, req.CloseDateSet = raw["expectedCloseDate"]
	_, req.ClientIDSet = raw["clientId"]

	return req, nil
}
