package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ActionClick_PrintsConfirmation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "status": "approved", "inputAction": "approve"})
	}))
	defer srv.Close()

	event := `{"action":"approve","data":{"requestId":"req1","residencyId":"res1","approvalToken":"tok"}}`
	var out bytes.Buffer
	err := run([]string{"--endpoint", srv.URL + "/v1/visitor-action"}, strings.NewReader(event), &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Visitor Approved")
}

func TestRun_BodyClick_PrintsOpen(t *testing.T) {
	var out bytes.Buffer
	err := run(nil, strings.NewReader(`{"data":{"click_action":"/resident/dashboard"}}`), &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), `"open": "/resident/dashboard"`)
}

func TestRun_BadEvent(t *testing.T) {
	err := run(nil, strings.NewReader("not json"), &bytes.Buffer{})
	assert.ErrorContains(t, err, "decode event")
}
