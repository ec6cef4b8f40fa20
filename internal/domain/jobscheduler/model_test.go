package jobscheduler

import "testing"

func TestDispatchEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		event   DispatchEvent
		wantErr bool
	}{
		{name: "sent", event: DispatchEvent{DispatchID: "d1", Status: StatusSent}},
		{name: "missing id", event: DispatchEvent{Status: StatusSent}, wantErr: true},
		{name: "unknown status", event: DispatchEvent{DispatchID: "d1", Status: "queued"}, wantErr: true},
		{name: "failed without message", event: DispatchEvent{DispatchID: "d1", Status: StatusFailed}, wantErr: true},
		{name: "failed with message", event: DispatchEvent{DispatchID: "d1", Status: StatusFailed, ErrorMessage: "boom"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestDispatchStatusTerminal(t *testing.T) {
	if StatusSent.Terminal() {
		t.Fatalf("sent must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Fatalf("completed and failed must be terminal")
	}
}
