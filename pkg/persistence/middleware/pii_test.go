package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/persistence"
	"github.com/aretw0/pitstop/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := persistence.NewMemoryStore()
	secure := middleware.MustPIIMiddleware([]string{"password", "ssn"})(underlying)
	ctx := context.Background()

	doc := []byte(`{
		"username": "jdoe",
		"user_password": "secret123",
		"details": {"address": "123 St", "ssn_number": "999-99-9999"},
		"history": [{"ssn": "111"}],
		"ssn_count": 2
	}`)
	if err := secure.Put(ctx, "run-1", doc); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	raw, err := underlying.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("underlying Get failed: %v", err)
	}
	var stored map[string]any
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatal(err)
	}

	if stored["username"] != "jdoe" {
		t.Error("username shouldn't be masked")
	}
	if stored["user_password"] != middleware.Mask {
		t.Errorf("password should be masked, got: %v", stored["user_password"])
	}
	details := stored["details"].(map[string]any)
	if details["ssn_number"] != middleware.Mask {
		t.Errorf("nested ssn should be masked, got: %v", details["ssn_number"])
	}
	history := stored["history"].([]any)
	if history[0].(map[string]any)["ssn"] != middleware.Mask {
		t.Errorf("ssn inside array should be masked, got: %v", history[0])
	}
	if stored["ssn_count"] != float64(2) {
		t.Errorf("numbers are kept, got: %v", stored["ssn_count"])
	}
}

func TestPIIMiddleware_ArchivedRunStillDecodes(t *testing.T) {
	ctx := context.Background()
	store := middleware.Chain(persistence.NewMemoryStore(),
		middleware.MustPIIMiddleware(middleware.DefaultPIIPatterns),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}),
	)
	archive := persistence.NewArchive(store)

	st := domain.NewState("run-1")
	st.VehicleID = "veh_007"
	st.CustomerID = "cust_107"
	st.CustomerName = "Neha"
	st.OutreachMessage = "Hello Neha, this is AutoMate from your service center."
	score := 850
	st.HealthScore = &score
	if err := archive.Save(ctx, st); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if st.CustomerName != "Neha" {
		t.Error("middleware modified the caller's state")
	}

	got, err := archive.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.CustomerName != middleware.Mask || got.CustomerID != middleware.Mask {
		t.Errorf("identity should be masked, got %q %q", got.CustomerID, got.CustomerName)
	}
	if got.OutreachMessage != "Hello ***, this is AutoMate from your service center." {
		t.Errorf("name should be scrubbed from free text, got %q", got.OutreachMessage)
	}
	if got.VehicleID != "veh_007" || got.HealthScore == nil || *got.HealthScore != 850 {
		t.Errorf("non-identity fields should survive, got %+v", got)
	}
}

func TestPIIMiddleware_ScrubsMaskedValues(t *testing.T) {
	underlying := persistence.NewMemoryStore()
	secure := middleware.MustPIIMiddleware(middleware.DefaultPIIPatterns)(underlying)
	ctx := context.Background()

	doc := []byte(`{
		"customer_name": "Neha",
		"customer_id": "cust_107",
		"xai_explanation": "Hello Neha, your booking for cust_107 is ready.",
		"history": ["greeted Neha"],
		"vehicle_id": "veh_007"
	}`)
	if err := secure.Put(ctx, "run-1", doc); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	raw, err := underlying.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("underlying Get failed: %v", err)
	}
	for _, secret := range []string{"Neha", "cust_107"} {
		if bytes.Contains(raw, []byte(secret)) {
			t.Errorf("stored document still contains %q: %s", secret, raw)
		}
	}
	if !bytes.Contains(raw, []byte(`"vehicle_id":"veh_007"`)) {
		t.Errorf("unrelated values should be kept: %s", raw)
	}
}

func TestNewPIIMiddleware_InvalidPattern(t *testing.T) {
	if _, err := middleware.NewPIIMiddleware([]string{"customer_("}); err == nil {
		t.Fatal("expected an error for an unbalanced pattern")
	}
}
