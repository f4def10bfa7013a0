package protocol

import "testing"

func TestParseClientMessage(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"client_message","text":"/list"}`))
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	if m, ok := msg.(ClientMessage); !ok || m.Text != "/list" {
		t.Fatalf("ParseClientMessage() = %#v", msg)
	}

	cb, err := ParseClientMessage([]byte(`{"type":"client_callback","callback_id":"c1","message_id":"m1","data":"complete:1"}`))
	if err != nil {
		t.Fatalf("ParseClientMessage(callback) error = %v", err)
	}
	if c, ok := cb.(ClientCallback); !ok || c.Data != "complete:1" {
		t.Fatalf("ParseClientMessage(callback) = %#v", cb)
	}
}

func TestParseClientMessageRejectsInvalid(t *testing.T) {
	inputs := []string{
		`not json`,
		`{"type":"client_message","text":"  "}`,
		`{"type":"client_callback","callback_id":"c1","data":"x"}`,
		`{"type":"bot_message"}`,
	}
	for _, in := range inputs {
		if _, err := ParseClientMessage([]byte(in)); err == nil {
			t.Fatalf("ParseClientMessage(%s) error = nil, want error", in)
		}
	}
}
