package policy

import (
	"errors"
	"strings"
	"testing"
)

func TestRedactSecrets(t *testing.T) {
	input := `Post "https://api.telegram.org/bot123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw/getUpdates": dial tcp: timeout`
	out, changed := RedactSecrets(input)
	if !changed {
		t.Fatalf("changed = false, want true")
	}
	if strings.Contains(out, "AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw") {
		t.Fatalf("token leaked: %q", out)
	}
	if !strings.Contains(out, "[REDACTED_TOKEN]/getUpdates") {
		t.Fatalf("output missing marker: %q", out)
	}
}

func TestRedactDSNPassword(t *testing.T) {
	got := RedactError(errors.New("connect postgres://todo:hunter2@db:5432/todo failed"))
	if strings.Contains(got, "hunter2") {
		t.Fatalf("password leaked: %q", got)
	}
	if !strings.Contains(got, "postgres://todo:[REDACTED]@db:5432/todo") {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestRedactLeavesPlainTextAlone(t *testing.T) {
	in := "Bad Request: message is not modified"
	out, changed := RedactSecrets(in)
	if changed || out != in {
		t.Fatalf("RedactSecrets(%q) = %q, %v", in, out, changed)
	}
	if RedactError(nil) != "" {
		t.Fatalf("RedactError(nil) should be empty")
	}
}
