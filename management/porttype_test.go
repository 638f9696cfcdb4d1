package management

import "testing"

func intPtr(v int) *int { return &v }

func TestResolvePortType(t *testing.T) {
	tests := []struct {
		name       string
		server     *int
		management *int
		want       PortType
	}{
		{"negative management disables", intPtr(8080), intPtr(-1), PortDisabled},
		{"negative management without server", nil, intPtr(-1), PortDisabled},
		{"management unset shares", intPtr(8080), nil, PortSame},
		{"both unset shares", nil, nil, PortSame},
		{"server unset management default shares", nil, intPtr(8080), PortSame},
		{"server unset management custom separates", nil, intPtr(9090), PortDifferent},
		{"equal ports share", intPtr(8080), intPtr(8080), PortSame},
		{"distinct ports separate", intPtr(8080), intPtr(9090), PortDifferent},
		{"ephemeral management separates", intPtr(8080), intPtr(0), PortDifferent},
		{"ephemeral on both sides separates", intPtr(0), intPtr(0), PortDifferent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePortType(tt.server, tt.management)
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPortTypeString(t *testing.T) {
	if PortDisabled.String() != "disabled" || PortSame.String() != "same" || PortDifferent.String() != "different" {
		t.Fatalf("unexpected names: %v %v %v", PortDisabled, PortSame, PortDifferent)
	}
	if PortType(42).String() != "unknown" {
		t.Fatalf("unexpected name for out-of-range value: %v", PortType(42))
	}
}
