package envelope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeData_Object(t *testing.T) {
	body := []byte(`{"status":"success","message":"ok","data":{"id":"r1","title":"Pothole"}}`)

	var out struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, DecodeData(body, &out))
	assert.Equal(t, "r1", out.ID)
	assert.Equal(t, "Pothole", out.Title)
}

func TestDecodeData_MissingData(t *testing.T) {
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, DecodeData([]byte(`{"status":"success"}`), &out))
	assert.Empty(t, out.ID)

	require.NoError(t, DecodeData([]byte(`{"status":"success","data":null}`), &out))
	assert.Empty(t, out.ID)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte(`{"status":`))
	assert.Error(t, err)
}

func TestCamelizeData_Recursive(t *testing.T) {
	body := []byte(`{
		"status": "success",
		"data": {
			"report_id": "r1",
			"image_url": "http://x/y.jpg",
			"assigned_departments": ["pekerjaan_umum"],
			"history": [
				{"changed_by": "admin", "old_status": "pending"},
				{"changed_by": "admin", "nested": {"sla_deadline": "2024-01-01"}}
			]
		}
	}`)

	out, err := CamelizeData(body)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))

	data := doc["data"].(map[string]any)
	assert.Equal(t, "r1", data["reportId"])
	assert.Equal(t, "http://x/y.jpg", data["imageUrl"])
	assert.NotContains(t, data, "report_id")

	// Array values are untouched, only keys are rewritten.
	assert.Equal(t, []any{"pekerjaan_umum"}, data["assignedDepartments"])

	history := data["history"].([]any)
	first := history[0].(map[string]any)
	assert.Equal(t, "admin", first["changedBy"])
	assert.Equal(t, "pending", first["oldStatus"])

	nested := history[1].(map[string]any)["nested"].(map[string]any)
	assert.Contains(t, nested, "slaDeadline")
}

func TestCamelizeData_ArrayData(t *testing.T) {
	body := []byte(`{"status":"success","data":[{"report_id":"a"},{"report_id":"b"}]}`)

	out, err := CamelizeData(body)
	require.NoError(t, err)

	var doc struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	require.Len(t, doc.Data, 2)
	assert.Equal(t, "a", doc.Data[0]["reportId"])
	assert.Equal(t, "b", doc.Data[1]["reportId"])
}

func TestCamelizeData_NoData(t *testing.T) {
	body := []byte(`{"status":"error","message":"nope"}`)
	out, err := CamelizeData(body)
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(out))
}

func TestCamelizeData_Malformed(t *testing.T) {
	_, err := CamelizeData([]byte(`not json`))
	assert.Error(t, err)
}

func TestCamelKey(t *testing.T) {
	tests := map[string]string{
		"report_id":       "reportId",
		"sla_deadline":    "slaDeadline",
		"title":           "title",
		"already_camelId": "alreadyCamelId",
		"_id":             "Id",
		"trailing_":       "trailing_",
		"numeric_2d":      "numeric_2d",
	}
	for in, want := range tests {
		assert.Equal(t, want, camelKey(in), "camelKey(%q)", in)
	}
}

func TestCamelKey_Idempotent(t *testing.T) {
	once := camelKey("report_id")
	assert.Equal(t, once, camelKey(once))
}
