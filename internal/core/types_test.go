package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2024-03-01", want: "2024-03-01"},
		{in: " 2024-03-01 ", want: "2024-03-01"},
		{in: "2024-03-01T10:30:00Z", want: "2024-03-01"},
		{in: "2024-03-01T23:30:00-03:00", want: "2024-03-02"},
		{in: "2024-03-01T12:00:00.123Z", want: "2024-03-01"},
		{in: "01/03/2024", wantErr: true},
		{in: "2024-02-30", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDate(%q) = %s, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q): %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestDate_JSON(t *testing.T) {
	var p struct {
		Date Date `json:"date"`
	}
	if err := json.Unmarshal([]byte(`{"date":"2024-03-01T08:00:00Z"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !p.Date.Equal(NewDate(2024, time.March, 1)) {
		t.Errorf("date = %s", p.Date)
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"date":"2024-03-01"}` {
		t.Errorf("marshal = %s", out)
	}

	out, _ = json.Marshal(struct {
		Date Date `json:"date"`
	}{})
	if string(out) != `{"date":null}` {
		t.Errorf("zero date marshal = %s", out)
	}
}

func TestPayload_RoundTripVerbatim(t *testing.T) {
	raw := `{"AlunoId":999,"date":"2024-03-01","present":false,"extra":{"nested":[1,2,{"x":null}]}}`

	var wrapper struct {
		Dados Payload `json:"dadosOriginais"`
	}
	if err := json.Unmarshal([]byte(`{"dadosOriginais":`+raw+`}`), &wrapper); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if wrapper.Dados.String() != raw {
		t.Errorf("payload changed on decode:\n got %s\nwant %s", wrapper.Dados, raw)
	}

	out, err := json.Marshal(wrapper)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"dadosOriginais":`+raw+`}` {
		t.Errorf("payload changed on encode: %s", out)
	}
}

func TestPayload_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`{"a":1}`, true},
		{`[1,2]`, true},
		{`null`, true},
		{`{"a":`, false},
		{``, false},
	}
	for _, tt := range tests {
		if got := Payload(tt.in).Valid(); got != tt.want {
			t.Errorf("Payload(%q).Valid() = %v, want %v", tt.in, got, tt.want)
		}
	}
}
