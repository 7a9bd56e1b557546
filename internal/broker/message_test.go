package broker

import (
	"encoding/json"
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{ID: "abc", StudyName: "ema_cross-binance-BTC-USDT-5m-genetic", DNA: "5A"}
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded Message
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != msg {
		t.Errorf("round trip = %+v, want %+v", decoded, msg)
	}
}

func TestResultMessageRoundTrip(t *testing.T) {
	result := ResultMessage{Score: 0.73, Err: ""}
	raw, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded ResultMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != result {
		t.Errorf("round trip = %+v, want %+v", decoded, result)
	}
}
