package types

import (
	"encoding/json"
	"regexp"
	"testing"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		fn     func() string
	}{
		{"message", "msg_", GenerateMessageID},
		{"event", "evt_", GenerateEventID},
		{"session", "ses_", GenerateSessionID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.fn()
			if ok, _ := regexp.MatchString("^"+regexp.QuoteMeta(tt.prefix)+"[0-9A-HJKMNP-TV-Z]{26}$", id); !ok {
				t.Fatalf("generated id %s does not have expected prefix %s", id, tt.prefix)
			}
		})
	}
}

func TestOptionSetKeepsPresentationOrder(t *testing.T) {
	s := NewOptionSet(Option{Key: "B", Text: "y"}, Option{Key: "A", Text: "x"})
	s.Set("B", "z")

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Key != "B" || entries[0].Text != "z" || entries[1].Key != "A" {
		t.Fatalf("unexpected order: %+v", entries)
	}
}

func TestCheckpointContextJSONKeepsOptions(t *testing.T) {
	ctx := CheckpointContext{
		Type:     CheckpointChoice,
		Question: "Which ability allows copying?",
		Options:  NewOptionSet(Option{Key: "B", Text: "copy"}, Option{Key: "A", Text: "drop"}),
	}
	data, err := json.Marshal(ctx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"checkpointType":"CHOICE","checkpointQuestion":"Which ability allows copying?","checkpointOptions":{"B":"copy","A":"drop"}}`
	if string(data) != want {
		t.Fatalf("unexpected json:\n got %s\nwant %s", data, want)
	}

	var back CheckpointContext
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	entries := back.Options.Entries()
	if len(entries) != 2 || entries[0].Key != "B" || entries[1].Text != "drop" {
		t.Fatalf("options lost order: %+v", entries)
	}

	code, err := json.Marshal(CheckpointContext{Type: CheckpointCode, Code: "fun f() {}"})
	if err != nil {
		t.Fatalf("marshal code: %v", err)
	}
	if string(code) != `{"checkpointType":"CODE","code":"fun f() {}"}` {
		t.Fatalf("code context should omit options: %s", code)
	}
}

func TestCheckpointContextEmpty(t *testing.T) {
	var nilCtx *CheckpointContext
	if !nilCtx.Empty() {
		t.Fatalf("nil context should be empty")
	}
	if !(&CheckpointContext{Options: NewOptionSet()}).Empty() {
		t.Fatalf("context with empty option set should be empty")
	}
	if (&CheckpointContext{Question: "Q?"}).Empty() {
		t.Fatalf("context with a question is not empty")
	}
}

func TestAuthRecordMerge(t *testing.T) {
	r := AuthRecord{}.Merge(AuthRecord{WalletAddress: "0xabc", TokenValue: "jwt"})
	if !r.IsLoggedIn {
		t.Fatalf("expected logged in after wallet address is set")
	}
	r = r.Merge(AuthRecord{WalletType: "Petra"})
	if r.TokenValue != "jwt" || r.WalletType != "Petra" {
		t.Fatalf("merge dropped fields: %+v", r)
	}
}
