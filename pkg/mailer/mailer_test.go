package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/fixmate-lk/fixmate-backend/pkg/config"
)

func TestSMTPSenderBuildsPayload(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotPayload []byte

	sender := &smtpSender{
		cfg: config.SMTPConfig{
			Host:        "mail.example.com",
			Port:        587,
			DefaultFrom: "no-reply@fixmate.lk",
		},
		send: func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotPayload = addr, from, to, msg
			return nil
		},
	}

	err := sender.Send(context.Background(), Message{
		To:      "customer@example.com",
		Subject: "Booking confirmed",
		Body:    "Your booking is confirmed.",
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if gotAddr != "mail.example.com:587" {
		t.Fatalf("addr = %s", gotAddr)
	}
	if gotFrom != "no-reply@fixmate.lk" {
		t.Fatalf("from = %s", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "customer@example.com" {
		t.Fatalf("to = %v", gotTo)
	}
	payload := string(gotPayload)
	if !strings.Contains(payload, "Subject: Booking confirmed\r\n") {
		t.Fatalf("payload missing subject: %q", payload)
	}
	if !strings.HasSuffix(payload, "Your booking is confirmed.") {
		t.Fatalf("payload missing body: %q", payload)
	}
}

func TestSMTPSenderSurfacesDeliveryError(t *testing.T) {
	sender := &smtpSender{
		cfg: config.SMTPConfig{Host: "mail.example.com", Port: 25, DefaultFrom: "x@y.z"},
		send: func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("connection refused")
		},
	}

	err := sender.Send(context.Background(), Message{To: "a@b.c", Subject: "s", Body: "b"})
	if err == nil {
		t.Fatal("expected delivery error")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSMTPSenderRejectsMissingRecipient(t *testing.T) {
	sender := &smtpSender{cfg: config.SMTPConfig{Host: "mail.example.com"}}
	if err := sender.Send(context.Background(), Message{Subject: "s"}); err == nil {
		t.Fatal("expected error for missing recipient")
	}
}

func TestFromConfigFallsBackToNoop(t *testing.T) {
	sender := FromConfig(config.SMTPConfig{}, nil)
	if err := sender.Send(context.Background(), Message{To: "a@b.c"}); err != nil {
		t.Fatalf("noop sender should not error: %v", err)
	}
}
