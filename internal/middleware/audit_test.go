package middleware

import (
	"encoding/json"
	"testing"
)

func TestRedactAuditBodySensitivePath(t *testing.T) {
	body := []byte(`{"api_key":"k","signature":"deadbeef","nested":{"hmac_secret":"s"},"tenant_id":"tenant-1"}`)
	out := redactAuditBody("/v1/propose_intent", body)

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if data["api_key"] == "k" {
		t.Fatalf("api_key not redacted")
	}
	if data["signature"] == "deadbeef" {
		t.Fatalf("signature not redacted")
	}
	if nested, ok := data["nested"].(map[string]interface{}); ok {
		if nested["hmac_secret"] == "s" {
			t.Fatalf("nested secret not redacted")
		}
	}
	if data["tenant_id"] != "tenant-1" {
		t.Fatalf("non-sensitive field must survive")
	}
}

func TestRedactAuditBodyWebhookPath(t *testing.T) {
	body := []byte(`{"sig":"deadbeef"}`)
	out := redactAuditBody("/webhooks/execution", body)

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if data["sig"] == "deadbeef" {
		t.Fatalf("sig not redacted on webhook path")
	}
}

func TestRedactAuditBodyNonSensitivePath(t *testing.T) {
	body := []byte(`{"status":"ok"}`)
	out := redactAuditBody("/health", body)
	if out != string(body) {
		t.Fatalf("unexpected redaction on non-sensitive path")
	}
}

func TestRedactAuditBodyInvalidJSON(t *testing.T) {
	out := redactAuditBody("/v1/propose_intent", []byte("not-json"))
	if out != "[redacted]" {
		t.Fatalf("expected redacted placeholder for invalid json, got %q", out)
	}
}
