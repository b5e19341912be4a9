package recaptcha

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRealClient_Verify_SendsSecretTokenAndIP(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		got = map[string]string{
			"secret":   r.PostForm.Get("secret"),
			"response": r.PostForm.Get("response"),
			"remoteip": r.PostForm.Get("remoteip"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"score":0.9,"action":"contact"}`))
	}))
	defer srv.Close()

	c := NewClient("s3cret", time.Second)
	c.VerifyURL = srv.URL

	resp, err := c.Verify(context.Background(), "tok", "203.0.113.7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success || resp.Score == nil || *resp.Score != 0.9 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if got["secret"] != "s3cret" || got["response"] != "tok" || got["remoteip"] != "203.0.113.7" {
		t.Errorf("unexpected form: %v", got)
	}
}

func TestRealClient_Verify_OmitsUnknownIP(t *testing.T) {
	var hasIP bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		_, hasIP = r.PostForm["remoteip"]
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient("s", time.Second)
	c.VerifyURL = srv.URL

	resp, err := c.Verify(context.Background(), "tok", "unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasIP {
		t.Error("remoteip should not be sent for the unknown sentinel")
	}
	if resp.Score != nil {
		t.Errorf("expected nil score, got %v", *resp.Score)
	}
}

func TestRealClient_Verify_NotConfigured(t *testing.T) {
	c := NewClient("", time.Second)
	if _, err := c.Verify(context.Background(), "tok", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestRealClient_Verify_Non200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("s", time.Second)
	c.VerifyURL = srv.URL
	if _, err := c.Verify(context.Background(), "tok", ""); err == nil {
		t.Error("expected error for 502")
	}
}

func TestRealClient_Verify_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	c := NewClient("s", time.Second)
	c.VerifyURL = srv.URL
	if _, err := c.Verify(context.Background(), "tok", ""); err == nil {
		t.Error("expected decode error")
	}
}
