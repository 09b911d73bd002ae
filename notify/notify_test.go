package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raushankrgupta/fitly-outfits/models"
	"go.uber.org/zap"
)

func TestSendGridMailerCollectionReady(t *testing.T) {
	var got map[string]any
	status := http.StatusAccepted
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sg-key" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	m := NewSendGridMailer("sg-key", "no-reply@fitly.test", zap.NewNop())
	m.client.Request.BaseURL = srv.URL

	user := models.User{Name: "Ana", Email: "ana@example.com"}
	if err := m.CollectionReady(context.Background(), user, "c1", 3); err != nil {
		t.Fatalf("CollectionReady: %v", err)
	}
	if got["subject"] != "Your outfits are ready" {
		t.Fatalf("unexpected mail body %v", got)
	}

	status = http.StatusBadRequest
	if err := m.CollectionReady(context.Background(), user, "c1", 3); err == nil {
		t.Fatal("expected error for a rejected message")
	}
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	if err := n.CollectionReady(context.Background(), models.User{}, "", 0); err != nil {
		t.Fatal(err)
	}
}
